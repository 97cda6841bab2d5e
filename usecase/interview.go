package usecase

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// Stage is one data-collection topic of the career interview.
type Stage int

const (
	StageBasicInfo Stage = iota
	StageInterests
	StageSkills
	StageExperience
	StageGoals
	StagePreferences

	stageCount = int(StagePreferences) + 1
)

// MinAnswerRunes is the trimmed length below which an answer earns a follow-up.
const MinAnswerRunes = 10

type stageInfo struct {
	name     string
	label    string
	question string
	example  string
	followup string
}

var stages = [stageCount]stageInfo{
	StageBasicInfo: {
		name:     "basic_info",
		label:    "Basic information",
		question: "Tell me about yourself: your age, education and field of study.",
		example:  "For example: I'm 25, I have a bachelor's degree in computer science and I work at an internet company.",
		followup: "Could you add your education and professional background? They matter a lot for planning.",
	},
	StageInterests: {
		name:     "interests",
		label:    "Interests",
		question: "Which fields or technologies interest you? What do you enjoy doing?",
		example:  "For example: I'm into AI and data analysis, and I like trying new tech and going to meetups.",
		followup: "Which technical direction interests you most? Frontend, backend, AI, data...?",
	},
	StageSkills: {
		name:     "skills",
		label:    "Skills",
		question: "Describe the skills you have today: languages, tools, frameworks.",
		example:  "For example: fluent in Python and Java, familiar with React and Vue, used MySQL and MongoDB.",
		followup: "How deep is each skill? Which ones have you mastered and which do you only know a little?",
	},
	StageExperience: {
		name:     "experience",
		label:    "Experience",
		question: "Tell me about your work or project experience.",
		example:  "For example: three years of backend work on an e-commerce order system, including a move to microservices.",
		followup: "What were your responsibilities and results in those projects?",
	},
	StageGoals: {
		name:     "goals",
		label:    "Career goals",
		question: "What are your career goals? Where do you want to be in 3 to 5 years?",
		example:  "For example: become a tech lead within 3 years and run a team on large projects within 5.",
		followup: "Which role level or direction are you aiming for?",
	},
	StagePreferences: {
		name:     "preferences",
		label:    "Work preferences",
		question: "Any preferences for your work? Location, company type, salary, workload...",
		example:  "For example: a tier-one city, a large company or a unicorn, 300k+ a year, some overtime is fine.",
		followup: "What do you expect from company culture and work environment?",
	},
}

func (s Stage) String() string {
	if s < 0 || int(s) >= stageCount {
		return fmt.Sprintf("Stage(%d)", int(s))
	}
	return stages[s].name
}

// Label is the human-readable stage title used in prompts.
func (s Stage) Label() string {
	if s < 0 || int(s) >= stageCount {
		return s.String()
	}
	return stages[s].label
}

// Stages returns the interview stages in order.
func Stages() []Stage {
	out := make([]Stage, stageCount)
	for i := range out {
		out[i] = Stage(i)
	}
	return out
}

// Interview is the career interview state machine. The zero value is an
// interview at stage 0.
type Interview struct {
	stageIndex      int
	answers         [stageCount]string
	followupPending bool
}

func NewInterview() *Interview {
	return &Interview{}
}

// Start resets the interview and returns the welcome text with the first
// question.
func (iv *Interview) Start() string {
	iv.Cancel()

	var b strings.Builder
	b.WriteString("🎯 Welcome to career planning!\n\n")
	b.WriteString("I'll ask a few questions to understand your situation, then write a personalized career plan for you.\n")
	fmt.Fprintf(&b, "There are %d questions and it takes about 5-10 minutes.\n\n", stageCount)
	b.WriteString(iv.progressBar())
	b.WriteString("\n\n")
	b.WriteString(iv.currentQuestion())
	return b.String()
}

// ProcessAnswer feeds one user answer into the interview.
func (iv *Interview) ProcessAnswer(answer string) (complete bool, response string) {
	if iv.stageIndex >= stageCount {
		return true, iv.completionMessage()
	}

	if !IsAnswerSufficient(answer) && !iv.followupPending {
		iv.followupPending = true
		return false, iv.followup()
	}

	iv.answers[iv.stageIndex] = answer
	iv.followupPending = false
	iv.stageIndex++

	if iv.stageIndex == stageCount {
		return true, iv.completionMessage()
	}
	return false, iv.progressBar() + "\n\n" + iv.currentQuestion()
}

// IsAnswerSufficient reports whether an answer is detailed enough to accept
// without a follow-up.
func IsAnswerSufficient(answer string) bool {
	return utf8.RuneCountInString(strings.TrimSpace(answer)) >= MinAnswerRunes
}

// Cancel returns the interview to stage 0 and forgets every answer.
func (iv *Interview) Cancel() {
	iv.stageIndex = 0
	iv.answers = [stageCount]string{}
	iv.followupPending = false
}

func (iv *Interview) StageIndex() int { return iv.stageIndex }

func (iv *Interview) FollowupPending() bool { return iv.followupPending }

func (iv *Interview) Complete() bool { return iv.stageIndex >= stageCount }

// Progress is stageIndex/6; it reaches 1.0 only once every stage is answered.
func (iv *Interview) Progress() float64 {
	return float64(iv.stageIndex) / float64(stageCount)
}

// CurrentStage returns the stage awaiting an answer; ok is false once complete.
func (iv *Interview) CurrentStage() (Stage, bool) {
	if iv.Complete() {
		return 0, false
	}
	return Stage(iv.stageIndex), true
}

// Answer returns the stored answer for stage.
func (iv *Interview) Answer(s Stage) string {
	if s < 0 || int(s) >= stageCount {
		return ""
	}
	return iv.answers[s]
}

// BuildReportPrompt renders every collected answer under its stage label,
// followed by the report template.
func (iv *Interview) BuildReportPrompt() string {
	var b strings.Builder
	b.WriteString("Write a detailed career plan report based on the following information about the user.\n\n")
	b.WriteString("## User information\n\n")
	for _, s := range Stages() {
		value := iv.answers[s]
		if value == "" {
			value = "Not provided"
		}
		fmt.Fprintf(&b, "### %s\n%s\n\n", s.Label(), value)
	}
	b.WriteString("\n## Report requirements\n\n")
	b.WriteString(reportTemplate)
	return b.String()
}

func (iv *Interview) currentQuestion() string {
	if iv.Complete() {
		return ""
	}
	info := stages[iv.stageIndex]
	return fmt.Sprintf("**Question %d/%d**\n\n%s\n\n💡 %s", iv.stageIndex+1, stageCount, info.question, info.example)
}

func (iv *Interview) followup() string {
	info := stages[iv.stageIndex]
	return fmt.Sprintf("📝 That answer is a bit short. %s\n\n💡 %s", info.followup, info.example)
}

func (iv *Interview) progressBar() string {
	filled := strings.Repeat("█", iv.stageIndex)
	empty := strings.Repeat("░", stageCount-iv.stageIndex)
	return fmt.Sprintf("Progress: [%s%s] %d%% (%d/%d)", filled, empty, int(iv.Progress()*100), iv.stageIndex, stageCount)
}

func (iv *Interview) completionMessage() string {
	var b strings.Builder
	b.WriteString("✅ All information collected!\n\n")
	b.WriteString(iv.progressBar())
	b.WriteString("\n\n")
	b.WriteString("Thanks for your patience! I'm now writing your personalized career plan...\n")
	b.WriteString("It will cover recommended roles, a skill development path and learning resources.")
	return b.String()
}

const reportTemplate = `Structure the career plan report as follows:

### 1. Executive Summary
- Briefly summarize the user's current situation and the main recommendations
- Highlight the most important career direction

### 2. Personal Profile Analysis
- Analyze the user's background, strengths and traits
- Identify core competencies

### 3. Career Direction Recommendations
- Recommend at least 3 concrete roles
- For each: title, industry, salary range, market demand, description, requirements

### 4. Industry Analysis
- Market trends of the recommended industries
- Evidence-based outlook

### 5. Skill Gap Analysis
- Compare current skills with the target roles
- Identify the key skills to improve

### 6. Learning Path
- Learning resources split into free and paid
- For each: name, type, link (if any), estimated time, priority

### 7. Technology Stack Recommendations
- Technologies to learn
- For each: category, name, reason, estimated learning time

### 8. Timeline and Milestones
- Short term (0-6 months)
- Mid term (6-18 months)
- Long term (18+ months)
- For each milestone: goal, timeframe, key actions

### 9. Action Items
- Prioritized concrete actions
- For each: priority (1-5), action, deadline, expected outcome

Make the report concrete, actionable and tailored to the user.`
