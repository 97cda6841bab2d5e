package usecase

import (
	"strings"

	"github.com/satriahrh/cocoa-fruit/assistant/domain"
)

type intentRule struct {
	intent   domain.Intent
	keywords []string
}

// intentRules is evaluated top to bottom; the first rule with a matching
// keyword wins. Weather must stay ahead of career: "明天的工作天气" is a weather
// question.
var intentRules = []intentRule{
	{
		intent: domain.IntentWeather,
		keywords: []string{
			"天气", "weather", "温度", "气温", "下雨", "下雪", "晴天", "阴天",
			"预报", "forecast", "湿度", "humidity", "风", "wind", "多少度",
			"冷", "热", "穿什么", "带伞", "出门", "明天", "今天", "后天",
			"这周", "周末", "气候", "climate",
		},
	},
	{
		intent: domain.IntentCareer,
		keywords: []string{
			"职业", "career", "工作", "job", "规划", "plan", "发展", "development",
			"转行", "跳槽", "面试", "interview", "简历", "resume", "技能", "skill",
			"学习", "learn", "提升", "improve", "薪资", "salary", "晋升", "promotion",
			"行业", "industry", "前景", "未来", "建议", "advice", "方向", "direction",
			"职业规划", "职业发展", "职业建议", "找工作", "换工作",
		},
	},
}

// Classify assigns an intent to one user turn. It is pure and total.
func Classify(text string) domain.Intent {
	lower := strings.ToLower(text)
	for _, rule := range intentRules {
		for _, kw := range rule.keywords {
			if strings.Contains(lower, kw) {
				return rule.intent
			}
		}
	}
	return domain.IntentGeneral
}
