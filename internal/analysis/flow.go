package analysis

import (
	"regexp"
	"strings"

	"github.com/spigell/hh-interviewer/internal/interview"
)

// DefaultFlowWindow is how many recent candidate turns are scanned.
const DefaultFlowWindow = 2

type Topic string

const (
	TopicPersonalLife  Topic = "personal-life"
	TopicPolitics      Topic = "politics"
	TopicEntertainment Topic = "entertainment"
	TopicSports        Topic = "sports"
	TopicReligion      Topic = "religion"
	TopicFinanceGossip Topic = "finance-gossip"
)

type topicBucket struct {
	topic   Topic
	pattern *regexp.Regexp
}

func bucket(topic Topic, keywords ...string) topicBucket {
	escaped := make([]string, len(keywords))
	for i, k := range keywords {
		escaped[i] = regexp.QuoteMeta(k)
	}
	return topicBucket{
		topic:   topic,
		pattern: regexp.MustCompile(`(?i)\b(` + strings.Join(escaped, "|") + `)\b`),
	}
}

// Buckets are checked in order; the first one with the most hits wins.
var offTopicBuckets = []topicBucket{
	bucket(TopicPersonalLife, "girlfriend", "boyfriend", "my wife", "my husband", "my kids", "my children", "dating", "wedding", "divorce", "my family", "my parents"),
	bucket(TopicPolitics, "election", "elections", "president", "politician", "politicians", "parliament", "senator", "democrats", "republicans", "political party"),
	bucket(TopicEntertainment, "movie", "movies", "netflix", "tv show", "tv series", "celebrity", "celebrities", "concert", "video games", "binge"),
	bucket(TopicSports, "football", "soccer", "basketball", "baseball", "hockey", "world cup", "playoffs", "nba", "nfl", "champions league"),
	bucket(TopicReligion, "church", "religion", "religious", "prayer", "pray", "bible", "quran", "mosque", "god"),
	bucket(TopicFinanceGossip, "lottery", "casino", "gambling", "meme coin", "stock tip", "stock tips", "get rich", "to the moon"),
}

var redirections = []string{
	"Let's bring the focus back to your professional experience.",
	"That's interesting, but let's return to the interview topics.",
	"I'd like to keep us focused on your work and skills.",
	"Let's steer back to the role and your experience.",
}

// Analysis is the FlowMonitor verdict for the recent turns.
type Analysis struct {
	NeedsRedirection bool
	Topic            Topic
}

// FlowMonitor detects answers drifting away from professional topics.
type FlowMonitor struct {
	window int
}

func NewFlowMonitor(window int) *FlowMonitor {
	if window <= 0 {
		window = DefaultFlowWindow
	}
	return &FlowMonitor{window: window}
}

// Window is the number of trailing candidate turns Analyze considers.
func (m *FlowMonitor) Window() int { return m.window }

// Analyze scans the last candidate turns of recent for off-topic keywords.
// Interviewer messages are ignored.
func (m *FlowMonitor) Analyze(recent []interview.Message) Analysis {
	var texts []string
	for i := len(recent) - 1; i >= 0 && len(texts) < m.window; i-- {
		if recent[i].Role == interview.RoleCandidate {
			texts = append(texts, recent[i].Text)
		}
	}
	if len(texts) == 0 {
		return Analysis{}
	}
	text := strings.Join(texts, "\n")

	best, bestHits := Topic(""), 0
	for _, b := range offTopicBuckets {
		if hits := len(b.pattern.FindAllStringIndex(text, -1)); hits > bestHits {
			best, bestHits = b.topic, hits
		}
	}

	if bestHits == 0 {
		return Analysis{}
	}
	return Analysis{NeedsRedirection: true, Topic: best}
}

// Redirection returns the n-th redirection utterance, cycling through a fixed set.
func Redirection(n int) string {
	if n < 0 {
		n = -n
	}
	return redirections[n%len(redirections)]
}
