package i18n

import "sync/atomic"

// Translator retrieves localized messages for Issue codes.
// data provides optional metadata to embed in the message (for example,
// "expected" or "key").
type Translator interface {
	Message(code string, data map[string]string) string
}

// dictTranslator is the built-in dictionary-based Translator.
type dictTranslator struct{ lang string }

func (t dictTranslator) Message(code string, data map[string]string) string {
	switch t.lang {
	case "ja":
		switch code {
		case "invalid_type":
			return "型が不正です"
		case "type_mismatch":
			return "リソース型が一致しません"
		case "quantity_mismatch":
			return "要素数が一致しません"
		case "required":
			return "必須の値がありません"
		case "null_not_permitted":
			return "null は許可されていません"
		case "transform_failed":
			return "値の変換に失敗しました"
		case "illegal_encoding":
			return "不正なエンコードです"
		case "illegal_decoding":
			return "不正なデコードです"
		case "missing_or_malformed_meta":
			return "meta が欠落しているか不正です"
		case "missing_or_malformed_links":
			return "links が欠落しているか不正です"
		case "include_no_match":
			return "included の要素がどの候補型にも一致しません"
		case "structural":
			return "リソース定義の構造が不正です"
		case "unknown_key":
			return "未知のキーです"
		case "duplicate_key":
			return "キーが重複しています"
		case "parse_error":
			return "解析エラー"
		case "truncated":
			return "打ち切られました"
		case "dependency_unavailable":
			return "依存先サービスが利用できません"
		}
	default: // "en"
		switch code {
		case "invalid_type":
			return "invalid type"
		case "type_mismatch":
			return "resource type mismatch"
		case "quantity_mismatch":
			return "quantity mismatch"
		case "required":
			return "missing required value"
		case "null_not_permitted":
			return "null not permitted"
		case "transform_failed":
			return "value transformation failed"
		case "illegal_encoding":
			return "illegal encoding"
		case "illegal_decoding":
			return "illegal decoding"
		case "missing_or_malformed_meta":
			return "missing or malformed meta"
		case "missing_or_malformed_links":
			return "missing or malformed links"
		case "include_no_match":
			return "included resource matched no candidate type"
		case "structural":
			return "structural validation failure"
		case "unknown_key":
			return "unknown key"
		case "duplicate_key":
			return "duplicate key"
		case "parse_error":
			return "parse error"
		case "truncated":
			return "truncated"
		case "dependency_unavailable":
			return "dependency unavailable"
		}
	}
	return code
}

type holder struct{ tr Translator }

var current atomic.Pointer[holder]

func init() { current.Store(&holder{tr: dictTranslator{lang: "en"}}) }

// SetLanguage switches the built-in Translator language ("en"/"ja").
func SetLanguage(lang string) {
	if lang != "ja" {
		lang = "en"
	}
	current.Store(&holder{tr: dictTranslator{lang: lang}})
}

// SetTranslator replaces the Translator implementation (not limited to the
// dictionary version).
func SetTranslator(tr Translator) {
	if tr == nil {
		tr = dictTranslator{lang: "en"}
	}
	current.Store(&holder{tr: tr})
}

// T fetches a message for the given code using the current Translator.
func T(code string, data map[string]string) string { return current.Load().tr.Message(code, data) }
