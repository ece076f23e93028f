package jsonapi

import (
	eng "github.com/reoring/jsonapi/internal/engine"
)

// DetectDuplicateKeys reports duplicated object keys anywhere in data. JSON:API
// payloads with repeated members are ambiguous because most decoders keep the
// last value silently.
func DetectDuplicateKeys(data []byte, maxIssues int) (Issues, error) {
	si, err := eng.DetectDuplicateKeys(data, maxIssues)
	if err != nil {
		return fromEngineIssues(si), err
	}
	return fromEngineIssues(si), nil
}

func toEngineDup(s Severity) eng.DuplicateStrictness {
	switch s {
	case Error:
		return eng.DupError
	case Warn:
		return eng.DupWarn
	default:
		return eng.DupIgnore
	}
}

func fromEngineIssues(si []eng.SimpleIssue) Issues {
	var iss Issues
	for _, s := range si {
		iss = AppendIssues(iss, Issue{Code: s.Code, Path: s.Path, Message: s.Message})
	}
	return iss
}
