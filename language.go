package bodhikit

// Language selects the locale for user-facing runtime text.
type Language string

const (
	LanguageEnglish    Language = "en"
	LanguageVietnamese Language = "vi"
)

// Normalize maps unknown or empty languages to English.
func (l Language) Normalize() Language {
	if l == LanguageVietnamese {
		return LanguageVietnamese
	}
	return LanguageEnglish
}

// Greeting returns the opening line for a conversation with no history.
func Greeting(lang Language) string {
	if lang.Normalize() == LanguageVietnamese {
		return "Namaste! Tôi là trợ lý xây dựng tác nhân Phật giáo của bạn. Tôi có thể giúp bạn tạo, cập nhật và quản lý các tác nhân Phật giáo. Bạn muốn bắt đầu từ đâu?"
	}
	return "Namaste! I am your Buddhist agent builder assistant. I can help you create, update, and manage Buddhist agents. Where would you like to begin?"
}

// DefaultSystemPrompt returns the builder assistant's system prompt for the
// given language.
func DefaultSystemPrompt(lang Language) string {
	if lang.Normalize() == LanguageVietnamese {
		return "Bạn là trợ lý xây dựng tác nhân Phật giáo. Bạn giúp người dùng tạo, " +
			"cập nhật và quản lý các tác nhân Phật giáo cùng kho tri thức của họ. " +
			"Hãy dùng các công cụ được cung cấp; các thao tác nhạy cảm cần người dùng phê duyệt. " +
			"Trả lời với giọng điệu từ bi, rõ ràng và trung thực."
	}
	return "You are a Buddhist agent builder assistant. You help users create, " +
		"update and manage Buddhist agents and their knowledge bases. " +
		"Use the provided tools; sensitive operations require the user's approval. " +
		"Answer with a compassionate, clear and honest tone."
}

func cancelledMessage(lang Language) string {
	if lang.Normalize() == LanguageVietnamese {
		return "Hành động đã bị hủy bởi người dùng."
	}
	return "Action cancelled by user."
}
