package engine

// DetectDuplicateKeys reports every duplicated object key in data. maxIssues
// < 0 means unlimited; 0 disables reporting; > 0 caps the result and appends a
// "truncated" marker.
func DetectDuplicateKeys(data []byte, maxIssues int) ([]SimpleIssue, error) {
	if maxIssues == 0 {
		return nil, nil
	}
	var issues []SimpleIssue
	full := false
	sink := func(si SimpleIssue) {
		if full {
			return
		}
		issues = append(issues, si)
		if maxIssues > 0 && len(issues) >= maxIssues {
			issues = append(issues, SimpleIssue{Code: "truncated", Path: "/", Message: "max issues reached"})
			full = true
		}
	}
	src := WrapWithEnforcement(NewBytes(data), EnforceOptions{OnDuplicate: DupWarn, IssueSink: sink})
	if err := Drain(src); err != nil {
		return issues, err
	}
	return issues, nil
}
