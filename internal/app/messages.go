package app

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/message/catalog"

	"dreamfront/internal/domain"
)

// Message IDs are the English text.
const (
	msgNetwork        = "Network error. Please check your connection."
	msgSessionExpired = "Session expired. Please login again."
	msgForbidden      = "You do not have permission to perform this action."
	msgNotFound       = "Resource not found."
	msgServer         = "Server error. Please try again later."
	msgValidation     = "Please check the highlighted fields."
	msgUnknown        = "An error occurred. Please try again."
)

var arabic = map[string]string{
	msgNetwork:        "خطأ في الشبكة. يرجى التحقق من اتصالك.",
	msgSessionExpired: "انتهت الجلسة. يرجى تسجيل الدخول مرة أخرى.",
	msgForbidden:      "ليس لديك صلاحية لتنفيذ هذا الإجراء.",
	msgNotFound:       "المورد غير موجود.",
	msgServer:         "خطأ في الخادم. يرجى المحاولة لاحقاً.",
	msgValidation:     "يرجى التحقق من الحقول المحددة.",
	msgUnknown:        "حدث خطأ. يرجى المحاولة مرة أخرى.",
}

// SupportedLanguages are the languages with a message catalog. The first is
// the fallback.
var SupportedLanguages = []language.Tag{language.English, language.Arabic}

// Messages resolves user-facing failure messages per language.
type Messages struct {
	cat     catalog.Catalog
	matcher language.Matcher
}

// NewMessages builds the catalogs.
func NewMessages() *Messages {
	b := catalog.NewBuilder(catalog.Fallback(language.English))
	for id, text := range arabic {
		_ = b.SetString(language.English, id, id)
		_ = b.SetString(language.Arabic, id, text)
	}
	return &Messages{cat: b, matcher: language.NewMatcher(SupportedLanguages)}
}

// Match returns the supported language closest to lang.
func (m *Messages) Match(lang string) language.Tag {
	tag, err := language.Parse(lang)
	if err != nil {
		return SupportedLanguages[0]
	}
	_, idx, _ := m.matcher.Match(tag)
	return SupportedLanguages[idx]
}

// Supported returns the base language of lang when a catalog exists for it.
func (m *Messages) Supported(lang string) (string, bool) {
	tag, err := language.Parse(lang)
	if err != nil {
		return "", false
	}
	base, _ := tag.Base()
	for _, s := range SupportedLanguages {
		if b, _ := s.Base(); b == base {
			return base.String(), true
		}
	}
	return "", false
}

// Failure returns the message for a failure kind in lang.
func (m *Messages) Failure(lang string, kind domain.Kind) string {
	p := message.NewPrinter(m.Match(lang), message.Catalog(m.cat))
	switch kind {
	case domain.KindNetwork:
		return p.Sprintf(msgNetwork)
	case domain.KindAuthentication:
		return p.Sprintf(msgSessionExpired)
	case domain.KindAuthorization:
		return p.Sprintf(msgForbidden)
	case domain.KindNotFound:
		return p.Sprintf(msgNotFound)
	case domain.KindServer:
		return p.Sprintf(msgServer)
	case domain.KindValidation:
		return p.Sprintf(msgValidation)
	default:
		return p.Sprintf(msgUnknown)
	}
}
