package bodhikit

// Teaching is one entry in the built-in catalog of core Buddhist teachings.
type Teaching struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

const (
	TopicFourNobleTruths       = "four_noble_truths"
	TopicEightfoldPath         = "eightfold_path"
	TopicFivePrecepts          = "five_precepts"
	TopicThreeMarksOfExistence = "three_marks_of_existence"
)

func teachingTopics() []string {
	return []string{
		TopicFourNobleTruths,
		TopicEightfoldPath,
		TopicFivePrecepts,
		TopicThreeMarksOfExistence,
	}
}

var teachingsEN = map[string]Teaching{
	TopicFourNobleTruths: {
		Title: "The Four Noble Truths",
		Content: "1. Dukkha: life involves suffering and dissatisfaction. " +
			"2. Samudaya: suffering arises from craving and attachment. " +
			"3. Nirodha: suffering can cease when craving is released. " +
			"4. Magga: the Noble Eightfold Path leads to the cessation of suffering.",
	},
	TopicEightfoldPath: {
		Title: "The Noble Eightfold Path",
		Content: "Right View, Right Intention, Right Speech, Right Action, " +
			"Right Livelihood, Right Effort, Right Mindfulness and Right Concentration. " +
			"Together these train wisdom, ethical conduct and mental discipline.",
	},
	TopicFivePrecepts: {
		Title: "The Five Precepts",
		Content: "Refrain from taking life, from taking what is not given, " +
			"from sexual misconduct, from false speech, and from intoxicants that cloud the mind.",
	},
	TopicThreeMarksOfExistence: {
		Title: "The Three Marks of Existence",
		Content: "Anicca: all conditioned things are impermanent. " +
			"Dukkha: clinging to what changes brings suffering. " +
			"Anatta: no fixed, unchanging self can be found in any phenomenon.",
	},
}

var teachingsVI = map[string]Teaching{
	TopicFourNobleTruths: {
		Title: "Tứ Diệu Đế",
		Content: "1. Khổ đế: đời sống gắn liền với khổ đau và bất toại nguyện. " +
			"2. Tập đế: khổ đau sinh ra từ tham ái và chấp thủ. " +
			"3. Diệt đế: khổ đau có thể chấm dứt khi buông bỏ tham ái. " +
			"4. Đạo đế: Bát Chánh Đạo dẫn đến sự chấm dứt khổ đau.",
	},
	TopicEightfoldPath: {
		Title: "Bát Chánh Đạo",
		Content: "Chánh kiến, Chánh tư duy, Chánh ngữ, Chánh nghiệp, " +
			"Chánh mạng, Chánh tinh tấn, Chánh niệm và Chánh định. " +
			"Con đường này rèn luyện trí tuệ, đạo đức và thiền định.",
	},
	TopicFivePrecepts: {
		Title: "Ngũ Giới",
		Content: "Không sát sinh, không trộm cắp, không tà dâm, " +
			"không nói dối, và không dùng các chất gây say làm mờ tâm trí.",
	},
	TopicThreeMarksOfExistence: {
		Title: "Tam Pháp Ấn",
		Content: "Vô thường: mọi pháp hữu vi đều biến đổi. " +
			"Khổ: bám víu vào cái thay đổi sinh ra khổ đau. " +
			"Vô ngã: không có một cái tôi cố định trong bất kỳ hiện tượng nào.",
	},
}

// LookupTeaching returns the teaching for a topic in the given language.
func LookupTeaching(topic string, lang Language) (Teaching, error) {
	catalog := teachingsEN
	if lang.Normalize() == LanguageVietnamese {
		catalog = teachingsVI
	}
	teaching, ok := catalog[topic]
	if !ok {
		return Teaching{}, &NotFoundError{Resource: "teaching", ID: topic}
	}
	return teaching, nil
}
