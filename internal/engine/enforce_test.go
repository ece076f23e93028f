package engine

import "testing"

func TestCheck_DuplicateKeyError_Path(t *testing.T) {
	err := Check([]byte(`{"data":{"attributes":{"a":1,"a":2}}}`), EnforceOptions{OnDuplicate: DupError})
	ie, ok := err.(IssueError)
	if !ok {
		t.Fatalf("expected IssueError, got %v", err)
	}
	if ie.Code != "duplicate_key" || ie.Path != "/data/attributes/a" {
		t.Fatalf("unexpected issue: %+v", ie.SimpleIssue)
	}
}

func TestCheck_DuplicateKeyInArray_Path(t *testing.T) {
	err := Check([]byte(`{"included":[{"x":1},{"id":"1","id":"2"}]}`), EnforceOptions{OnDuplicate: DupError})
	ie, ok := err.(IssueError)
	if !ok {
		t.Fatalf("expected IssueError, got %v", err)
	}
	if ie.Path != "/included/1/id" {
		t.Fatalf("expected path /included/1/id, got %s", ie.Path)
	}
}

func TestCheck_DuplicateKeyWarn_UsesSink(t *testing.T) {
	var got []SimpleIssue
	err := Check([]byte(`{"a":1,"a":2}`), EnforceOptions{OnDuplicate: DupWarn, IssueSink: func(si SimpleIssue) { got = append(got, si) }})
	if err != nil {
		t.Fatalf("warn mode must not fail: %v", err)
	}
	if len(got) != 1 || got[0].Path != "/a" {
		t.Fatalf("expected one warning at /a, got %+v", got)
	}
}

func TestCheck_MaxDepth(t *testing.T) {
	data := []byte(`{"a":{"b":{"c":1}}}`)
	if err := Check(data, EnforceOptions{MaxDepth: 3}); err != nil {
		t.Fatalf("depth 3 should pass: %v", err)
	}
	err := Check(data, EnforceOptions{MaxDepth: 2})
	ie, ok := err.(IssueError)
	if !ok || ie.Path != "/a/b" {
		t.Fatalf("expected depth failure at /a/b, got %v", err)
	}
}

func TestCheck_MaxBytes(t *testing.T) {
	err := Check([]byte(`{"a":"0123456789"}`), EnforceOptions{MaxBytes: 4})
	ie, ok := err.(IssueError)
	if !ok || ie.Code != "truncated" {
		t.Fatalf("expected truncated, got %v", err)
	}
}

func TestCheck_Malformed(t *testing.T) {
	err := Check([]byte(`{"a":`), EnforceOptions{OnDuplicate: DupError})
	ie, ok := err.(IssueError)
	if !ok || ie.Code != "parse_error" {
		t.Fatalf("expected parse_error, got %v", err)
	}
}

func TestDetectDuplicateKeys_Cap(t *testing.T) {
	iss, err := DetectDuplicateKeys([]byte(`{"a":1,"a":2,"a":3,"b":[{"c":1,"c":2}]}`), 2)
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	if len(iss) != 3 || iss[2].Code != "truncated" {
		t.Fatalf("expected 2 issues plus truncated marker, got %+v", iss)
	}
}
