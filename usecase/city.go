package usecase

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

const maxCityRunes = 20

var cityPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)(?:查询|查|看|告诉我|帮我查|想知道|了解)(?:一下)?(.+?)(?:的)?(?:天气|气温|温度|预报)`),
	regexp.MustCompile(`(?i)(.+?)(?:的)?(?:天气|气温|温度|预报)(?:怎么样|如何|怎样|好不好)?`),
	regexp.MustCompile(`(?i)(?:天气|气温|温度|预报)(?:查询)?[：:]*(.+)`),
	regexp.MustCompile(`(?i)weather (?:in |of |for )?(.+)`),
	regexp.MustCompile(`(?i)(.+?) weather`),
}

var cityPunctuation = regexp.MustCompile(`[？?！!。，,]`)

// Time words and question filler that the patterns above capture along with
// the city, e.g. "今天北京" or "like in Paris".
var (
	cityNoisePrefixes = []string{
		"今天", "明天", "后天", "现在", "目前", "最近", "这几天",
		"what's the ", "what is the ", "how's the ", "how is the ",
		"like ", "today ", "tomorrow ", "now ", "in ", "for ", "of ", "at ",
	}
	cityNoiseSuffixes = []string{
		"今天", "明天", "后天", "现在",
		" today", " tomorrow", " now", " like",
	}
)

var commonCities = []string{
	"北京", "上海", "广州", "深圳", "杭州", "南京", "成都", "重庆",
	"武汉", "西安", "苏州", "天津", "青岛", "大连", "厦门", "长沙",
	"Beijing", "Shanghai", "Guangzhou", "Shenzhen", "Hangzhou",
	"Tokyo", "New York", "London", "Paris", "Sydney",
}

// ExtractCity pulls a city name out of a weather question. It returns "" when
// no plausible city is found.
func ExtractCity(message string) string {
	for _, p := range cityPatterns {
		m := p.FindStringSubmatch(message)
		if m == nil {
			continue
		}
		city := trimCityNoise(cityPunctuation.ReplaceAllString(m[1], ""))
		if city != "" && utf8.RuneCountInString(city) <= maxCityRunes {
			return city
		}
	}

	lower := strings.ToLower(message)
	for _, city := range commonCities {
		if strings.Contains(lower, strings.ToLower(city)) {
			return city
		}
	}
	return ""
}

func trimCityNoise(city string) string {
	city = strings.TrimSpace(city)
	for changed := true; changed && city != ""; {
		changed = false
		for _, p := range cityNoisePrefixes {
			if strings.EqualFold(city, strings.TrimSpace(p)) {
				return ""
			}
			if len(city) > len(p) && strings.EqualFold(city[:len(p)], p) {
				city, changed = strings.TrimSpace(city[len(p):]), true
				break
			}
		}
		if changed {
			continue
		}
		for _, suf := range cityNoiseSuffixes {
			cut := len(city) - len(suf)
			if cut > 0 && strings.EqualFold(city[cut:], suf) {
				city, changed = strings.TrimSpace(city[:cut]), true
				break
			}
		}
	}
	return city
}
