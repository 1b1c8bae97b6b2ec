package heuristic

// Keyword tables used across the heuristic analyzers. Everything is matched
// against normalized (lowercased, diacritic-stripped) text.

// summaryFamily is one recognizable conversation shape.
type summaryFamily struct {
	name     string
	keywords []string
	template string // verb phrase filled into the generated summary
}

// Families are checked in order; the first match wins.
var summaryFamilies = []summaryFamily{
	{
		name:     "assistance",
		keywords: []string{"help", "assist", "support", "can you", "could you"},
		template: "An assistance request and follow-up",
	},
	{
		name:     "problem-solving",
		keywords: []string{"error", "issue", "problem", "broken", "not working", "fix", "bug"},
		template: "A problem-solving discussion",
	},
	{
		name:     "work",
		keywords: []string{"meeting", "deadline", "project", "task", "report", "work", "schedule"},
		template: "A work coordination exchange",
	},
	{
		name:     "planning",
		keywords: []string{"plan", "tomorrow", "next week", "organize", "arrange", "prepare", "agenda"},
		template: "A planning conversation",
	},
	{
		name:     "positive-exchange",
		keywords: []string{"thanks", "thank you", "great", "awesome", "congrat", "well done"},
		template: "A positive exchange",
	},
	{
		name:     "question-answer",
		keywords: []string{"what", "when", "where", "why", "how", "?"},
		template: "A question and answer exchange",
	},
	{
		name:     "information-sharing",
		keywords: []string{"fyi", "update", "announc", "share", "note that", "heads up"},
		template: "An information sharing exchange",
	},
}

// Sentiment vocabulary. Weights are small integers; emoji carry the same
// weight as words.
var positiveWords = map[string]int{
	"thanks": 2, "thank": 2, "great": 2, "awesome": 2, "excellent": 2,
	"perfect": 2, "love": 2, "happy": 1, "good": 1, "nice": 1, "cool": 1,
	"yes": 1, "sure": 1, "glad": 1, "wonderful": 2, "haha": 1, "lol": 1,
	"congrats": 2, "congratulations": 2, "welcome": 1,
}

var negativeWords = map[string]int{
	"problem": 1, "issue": 1, "error": 1, "broken": 2, "fail": 2,
	"failed": 2, "bad": 1, "wrong": 1, "hate": 2, "angry": 2, "sad": 1,
	"terrible": 2, "worst": 2, "annoying": 2, "unfortunately": 1,
	"sorry": 1, "urgent": 1, "frustrated": 2,
}

var positiveEmoji = []string{"👍", "❤️", "😊", "😄", "🎉", "🙏", "💪", ":)", ":-)", ":d"}

var negativeEmoji = []string{"😞", "😡", "😠", "😢", "👎", ":(", ":-("}

// stopWords are high-frequency tokens that carry no topical signal.
var stopWords = map[string]bool{
	"the": true, "a": true, "an": true, "and": true, "or": true, "but": true,
	"if": true, "then": true, "else": true, "for": true, "of": true,
	"to": true, "in": true, "on": true, "at": true, "by": true, "from": true,
	"with": true, "about": true, "into": true, "is": true, "are": true,
	"was": true, "were": true, "be": true, "been": true, "am": true,
	"i": true, "you": true, "he": true, "she": true, "it": true, "we": true,
	"they": true, "me": true, "him": true, "her": true, "us": true,
	"them": true, "my": true, "your": true, "his": true, "its": true,
	"our": true, "their": true, "this": true, "that": true, "these": true,
	"those": true, "there": true, "here": true, "what": true, "which": true,
	"who": true, "when": true, "where": true, "why": true, "how": true,
	"not": true, "no": true, "yes": true, "do": true, "does": true,
	"did": true, "will": true, "would": true, "can": true, "could": true,
	"should": true, "have": true, "has": true, "had": true, "just": true,
	"so": true, "too": true, "very": true, "also": true, "than": true,
	"as": true, "up": true, "out": true, "all": true, "now": true,
	"get": true, "got": true, "ok": true, "okay": true, "im": true,
	"dont": true, "going": true, "really": true, "one": true, "some": true,
	"any": true, "more": true, "like": true, "know": true, "think": true,
	"well": true, "back": true, "still": true, "thats": true, "gonna": true,
}

// platformNoise are tokens injected by chat clients rather than humans.
var platformNoise = map[string]bool{
	"http": true, "https": true, "www": true, "com": true, "jpg": true,
	"png": true, "gif": true, "pdf": true, "attachment": true,
	"image": true, "sticker": true, "gifv": true, "edited": true,
	"joined": true, "left": true, "pinned": true, "unpinned": true,
}

// importantTopics get a frequency bonus so domain terms beat filler even at
// equal counts.
var importantTopics = map[string]bool{
	"meeting": true, "deadline": true, "project": true, "payment": true,
	"invoice": true, "budget": true, "contract": true, "delivery": true,
	"schedule": true, "appointment": true, "interview": true, "travel": true,
	"flight": true, "booking": true, "order": true, "repair": true,
	"maintenance": true, "water": true, "electricity": true, "internet": true,
	"rent": true, "lease": true, "family": true, "school": true,
	"doctor": true, "health": true, "emergency": true, "party": true,
	"birthday": true, "wedding": true, "dinner": true, "lunch": true,
}

// urgentKeywords drive the priority score.
var urgentKeywords = []string{
	"urgent", "asap", "immediately", "emergency", "critical", "right away",
	"as soon as possible", "deadline", "important",
}

// imperativePhrases flag likely action items.
var imperativePhrases = []string{
	"need to", "needs to", "have to", "please", "can you", "could you",
	"don't forget", "make sure", "remember to", "let's",
}
