package bodhikit

import "fmt"

// Guided practice catalog. Like the teachings table, these are static
// templates: the builder tools that expose them render text locally without
// calling the model.

const (
	MeditationMindfulness    = "mindfulness"
	MeditationLovingKindness = "loving_kindness"
	MeditationBreathing      = "breathing"
	MeditationBodyScan       = "body_scan"
)

func meditationKinds() []string {
	return []string{
		MeditationMindfulness,
		MeditationLovingKindness,
		MeditationBreathing,
		MeditationBodyScan,
	}
}

var meditationGuides = map[string]string{
	MeditationMindfulness: `Mindfulness Meditation (%[1]d minutes)

Find a comfortable seated position. Close your eyes or soften your gaze.

1. Take three deep breaths, inhaling through your nose and exhaling through your mouth.
2. Bring your attention to your natural breath: the rise and fall of your chest, the air moving through your nostrils.
3. When your mind wanders, gently bring your attention back to your breath without judgment.
4. Continue for %[1]d minutes, returning to the breath each time you notice the mind has wandered.
5. When the time is up, notice how you feel, then slowly open your eyes.`,

	MeditationLovingKindness: `Loving-Kindness Meditation (%[1]d minutes)

Sit comfortably and close your eyes. Take a few deep breaths.

1. Begin with yourself: "May I be happy. May I be healthy. May I be peaceful. May I be free from suffering."
2. Bring to mind someone you love dearly and offer them the same wishes.
3. Bring to mind a neutral person and offer them the same wishes.
4. Bring to mind someone you have difficulty with and offer them the same wishes.
5. Extend to all beings: "May all beings be happy, healthy, peaceful, and free from suffering."

Continue this practice for %[1]d minutes.`,

	MeditationBreathing: `Breathing Meditation (%[1]d minutes)

Sit comfortably with your back straight but relaxed.

1. Place your hands on your belly and feel it rise and fall with each breath.
2. Count your breaths: inhale (1), exhale (2), up to 10, then start over.
3. If you lose count, simply begin again at 1.
4. Continue for %[1]d minutes, keeping a gentle focus on the breath and the counting.
5. When finished, take a moment to notice the calm that has developed.`,

	MeditationBodyScan: `Body Scan Meditation (%[1]d minutes)

Lie down comfortably or sit with your back supported.

1. Take three deep breaths to settle in.
2. Bring your attention to the top of your head and notice any sensations there.
3. Slowly move down through the body: face, neck, shoulders, arms, chest, back, belly, hips, legs, feet.
4. At each area, pause briefly and notice whatever is present, even if nothing at all.
5. Continue scanning for %[1]d minutes, moving slowly and mindfully.
6. When finished, feel the body as a whole.`,
}

// MeditationGuide renders a guided meditation script for the given style and
// session length. Unknown styles fall back to mindfulness; a non-positive
// duration becomes ten minutes.
func MeditationGuide(kind string, minutes int) string {
	if minutes <= 0 {
		minutes = 10
	}
	tpl, ok := meditationGuides[kind]
	if !ok {
		tpl = meditationGuides[MeditationMindfulness]
	}
	return fmt.Sprintf(tpl, minutes)
}

const (
	MindfulnessDailyLife = "daily_life"
	MindfulnessWork      = "work"
	MindfulnessEating    = "eating"
	MindfulnessWalking   = "walking"
	MindfulnessStress    = "stress"
)

func mindfulnessContexts() []string {
	return []string{
		MindfulnessDailyLife,
		MindfulnessWork,
		MindfulnessEating,
		MindfulnessWalking,
		MindfulnessStress,
	}
}

var mindfulnessExercises = map[string]string{
	MindfulnessDailyLife: `Mindful Daily Activities

Choose one daily activity to do mindfully today:

1. Mindful brushing: pay full attention to brushing your teeth, the taste, the sensation, the sound.
2. Mindful showering: notice the temperature of the water and its feel on your skin.
3. Mindful walking: feel each step and be present with each movement.
4. Mindful listening: when someone speaks, give full attention without planning your response.
5. Mindful waiting: instead of reaching for your phone, simply observe your surroundings and thoughts.`,

	MindfulnessWork: `Mindful Work Practice

1. Before starting work, take three deep breaths and set an intention for the day.
2. When switching tasks, pause briefly and take a breath.
3. During meetings, practice mindful listening without planning your response.
4. Take mindful breaks: step away from your desk and notice your surroundings.
5. End the workday with a brief reflection on what you accomplished and what you are grateful for.`,

	MindfulnessEating: `Mindful Eating Exercise

1. Before eating, take a moment to appreciate your food and those who made it possible.
2. Notice the colors, smells, and textures of the food.
3. Take small bites and chew slowly, noticing taste and texture.
4. Put your utensil down between bites.
5. Notice when you are satisfied and stop before you are stuffed.
6. Express gratitude for the nourishment.`,

	MindfulnessWalking: `Mindful Walking Meditation

1. Walk slowly and deliberately, feeling each step.
2. Notice the sensation of your feet touching the ground.
3. Be aware of the surroundings: sights, sounds, smells.
4. If the mind wanders, bring it back to the sensation of walking.
5. Walk as if you are walking on sacred ground.
6. Practice for ten to fifteen minutes in a safe, quiet place.`,

	MindfulnessStress: `Mindful Stress Relief

1. STOP: Stop what you are doing, Take a breath, Observe your thoughts and feelings, Proceed mindfully.
2. Take three deep breaths, counting to four on the inhale and six on the exhale.
3. Notice where stress sits in the body: shoulders, jaw, belly.
4. Breathe into those areas, letting the breath soften the tension.
5. Remind yourself that this moment will pass.
6. Choose one small helpful action to take right now.`,
}

// MindfulnessExercise renders a mindfulness exercise for a situation. Unknown
// situations fall back to daily life.
func MindfulnessExercise(situation string) string {
	if ex, ok := mindfulnessExercises[situation]; ok {
		return ex
	}
	return mindfulnessExercises[MindfulnessDailyLife]
}

const (
	CompassionSelf            = "self"
	CompassionOthers          = "others"
	CompassionDifficultPerson = "difficult_person"
	CompassionAllBeings       = "all_beings"
)

func compassionTargets() []string {
	return []string{
		CompassionSelf,
		CompassionOthers,
		CompassionDifficultPerson,
		CompassionAllBeings,
	}
}

var compassionPractices = map[string]string{
	CompassionSelf: `Self-Compassion Practice

1. Place your hands over your heart and take a few deep breaths.
2. Acknowledge your suffering: "This is a moment of suffering."
3. Remember common humanity: "Suffering is part of being human. I am not alone in this."
4. Offer yourself kindness: "May I give myself the compassion I need."
5. Repeat these phrases silently for five to ten minutes.
6. Notice how it feels to be kind to yourself.`,

	CompassionOthers: `Compassion for Others Practice

1. Sit comfortably and close your eyes.
2. Think of someone you care about who is suffering.
3. Imagine their suffering as a dark cloud around them.
4. With each breath, imagine sending them light, warmth, and love.
5. Silently repeat: "May you be free from suffering. May you have peace and happiness."
6. Continue for five to ten minutes with genuine care for their well-being.`,

	CompassionDifficultPerson: `Compassion for Difficult People

1. Think of someone you have difficulty with, starting with someone only mildly difficult.
2. Remember that they, like you, want to be happy and avoid suffering.
3. Consider that harmful actions come from their own suffering and confusion.
4. Silently wish: "May you be free from the suffering that causes you to act this way."
5. You need not approve of their actions to have compassion for their suffering.
6. Practice for five minutes, gradually working with more difficult people over time.`,

	CompassionAllBeings: `Compassion for All Beings

1. Sit comfortably and take a few deep breaths.
2. Imagine all beings in the world: humans, animals, all living things.
3. Recognize that all beings want to be happy and avoid suffering.
4. With each breath, imagine sending compassion to all beings everywhere.
5. Silently repeat: "May all beings be free from suffering. May all beings have peace and happiness."
6. Continue for ten to fifteen minutes, feeling connected to all life.`,
}

// CompassionPractice renders a compassion exercise aimed at the given target.
// Unknown targets fall back to self-compassion.
func CompassionPractice(target string) string {
	if p, ok := compassionPractices[target]; ok {
		return p
	}
	return compassionPractices[CompassionSelf]
}

// LifeGuidance opens a guidance dialogue for a life question, inviting the
// user to share more context before advice is given.
func LifeGuidance(question string, lang Language) string {
	if lang.Normalize() == LanguageVietnamese {
		return fmt.Sprintf(`Dựa trên câu hỏi của bạn: "%s"

Tôi sẽ cung cấp hướng dẫn dựa trên giáo pháp Phật giáo. Hãy để tôi suy ngẫm về tình huống này và đưa ra lời khuyên từ góc nhìn của Đức Phật.

Bạn có thể chia sẻ thêm về hoàn cảnh cụ thể để tôi có thể đưa ra hướng dẫn phù hợp hơn không?`, question)
	}
	return fmt.Sprintf(`Based on your question: "%s"

I will provide guidance based on Buddhist teachings. Let me reflect on this situation and offer advice from the Buddha's perspective.

Could you share more about the specific circumstances so I can provide more appropriate guidance?`, question)
}

// StudyReviewMaterial renders a review outline for a Buddhist study topic.
func StudyReviewMaterial(topic string, lang Language) string {
	if lang.Normalize() == LanguageVietnamese {
		return fmt.Sprintf(`Tài liệu ôn tập về: %s

Dựa trên kinh điển và giáo pháp, đây là những điểm chính để ôn tập:

1. Khái niệm cơ bản
2. Ý nghĩa và ứng dụng
3. Cách thực hành
4. Lợi ích và kết quả

Bạn muốn tôi tạo câu hỏi kiểm tra về chủ đề này không?`, topic)
	}
	return fmt.Sprintf(`Study and review material for: %s

Based on Buddhist scriptures and teachings, here are the key points to review:

1. Basic concepts
2. Meaning and application
3. How to practice
4. Benefits and results

Would you like me to create test questions about this topic?`, topic)
}

// KnowledgeTest renders a multiple-choice test scaffold for a topic at the
// given difficulty.
func KnowledgeTest(topic, difficulty string, lang Language) string {
	if lang.Normalize() == LanguageVietnamese {
		return fmt.Sprintf(`Bài kiểm tra kiến thức về: %s
Mức độ: %s

Câu hỏi 1: [Câu hỏi về chủ đề]
A) [Lựa chọn A]
B) [Lựa chọn B]
C) [Lựa chọn C]
D) [Lựa chọn D]

Câu hỏi 2: [Câu hỏi về chủ đề]
A) [Lựa chọn A]
B) [Lựa chọn B]
C) [Lựa chọn C]
D) [Lựa chọn D]

Hãy trả lời các câu hỏi và tôi sẽ đánh giá kiến thức của bạn.`, topic, difficulty)
	}
	return fmt.Sprintf(`Knowledge test for: %s
Difficulty: %s

Question 1: [Question about topic]
A) [Option A]
B) [Option B]
C) [Option C]
D) [Option D]

Question 2: [Question about topic]
A) [Option A]
B) [Option B]
C) [Option C]
D) [Option D]

Please answer the questions and I will evaluate your knowledge.`, topic, difficulty)
}

// BuddhistPoem renders a gatha scaffold with composition guidance for the
// given theme and style.
func BuddhistPoem(theme, style string, lang Language) string {
	if lang.Normalize() == LanguageVietnamese {
		return fmt.Sprintf(`Thơ Kệ Phật Giáo
Chủ đề: %s
Phong cách: %s

[Thơ kệ sẽ được tạo dựa trên chủ đề và phong cách]

Hướng dẫn sáng tác:
1. Bắt đầu với cảm xúc chân thành
2. Sử dụng ngôn ngữ đơn giản nhưng sâu sắc
3. Thể hiện giáo pháp một cách tự nhiên
4. Tập trung vào thông điệp tích cực`, theme, style)
	}
	return fmt.Sprintf(`Buddhist Poetry (Gatha)
Theme: %s
Style: %s

[Poetry will be generated based on theme and style]

Creation guidance:
1. Start with sincere emotion
2. Use simple but profound language
3. Express teachings naturally
4. Focus on positive messages`, theme, style)
}
