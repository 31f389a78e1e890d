// Package narrate writes a short analysis of a report along with reduction
// suggestions for its heaviest categories.
package narrate

import (
	"context"
	"sort"
	"strings"

	"github.com/superdango/ecojourney"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// suggestions per category, most impactful first
var suggestions = map[ecojourney.Category][]string{
	ecojourney.CategoryTransport: {
		"가까운 거리는 걷거나 자전거를 이용해 보세요.",
		"자동차 대신 버스나 지하철을 이용하면 배출량을 크게 줄일 수 있어요.",
	},
	ecojourney.CategoryFood: {
		"소고기 대신 닭고기나 채소 위주의 식단을 시도해 보세요.",
		"먹을 만큼만 주문해 음식물 쓰레기를 줄여 보세요.",
	},
	ecojourney.CategoryElectricity: {
		"냉방 온도를 1도 높이고 사용 시간을 줄여 보세요.",
		"사용하지 않는 전자기기의 플러그를 뽑아 대기 전력을 줄여 보세요.",
	},
	ecojourney.CategoryWater: {
		"샤워 시간을 5분 줄이면 물과 에너지를 함께 아낄 수 있어요.",
		"빨래는 모아서 한 번에 세탁해 보세요.",
	},
	ecojourney.CategoryClothing: {
		"새 옷 대신 빈티지나 중고 의류를 골라 보세요.",
		"필요한 옷인지 한 번 더 생각하고 구매해 보세요.",
	},
	ecojourney.CategoryWaste: {
		"플라스틱, 캔, 유리는 분리배출해 재활용률을 높여 보세요.",
		"일회용품 대신 텀블러와 장바구니를 사용해 보세요.",
	},
}

type Narrator struct {
	printer        *message.Printer
	maxSuggestions int
}

type Option func(n *Narrator)

func WithLanguage(tag language.Tag) Option {
	return func(n *Narrator) {
		n.printer = message.NewPrinter(tag)
	}
}

// WithMaxSuggestions bounds the number of suggestions returned.
func WithMaxSuggestions(count int) Option {
	return func(n *Narrator) {
		n.maxSuggestions = count
	}
}

func New(opts ...Option) *Narrator {
	n := &Narrator{
		printer:        message.NewPrinter(language.Korean),
		maxSuggestions: 3,
	}

	for _, opt := range opts {
		opt(n)
	}

	return n
}

// Narrate implements ecojourney.Narrator.
func (n *Narrator) Narrate(ctx context.Context, report *ecojourney.Report) (ecojourney.Narrative, error) {
	if err := ctx.Err(); err != nil {
		return ecojourney.Narrative{}, err
	}
	if report == nil {
		return ecojourney.Narrative{Analysis: "기록된 활동이 없어요."}, nil
	}

	ranked := rankCategories(report)

	analysis := new(strings.Builder)
	analysis.WriteString(n.printer.Sprintf("오늘의 탄소 배출량은 %.2f kgCO2e 입니다. ", report.TotalEmission))

	c := report.Comparison
	if c.IsBetter {
		analysis.WriteString(n.printer.Sprintf("하루 평균 %.1f kg보다 %.1f%% 적게 배출했어요. ", c.Baseline, c.PercentDifference))
	} else {
		analysis.WriteString(n.printer.Sprintf("하루 평균 %.1f kg보다 %.1f%% 많이 배출했어요. ", c.Baseline, c.PercentDifference))
	}

	if len(ranked) > 0 {
		top := ranked[0]
		share := report.CategoryBreakdown[top]
		analysis.WriteString(n.printer.Sprintf("가장 큰 비중은 %s (%.1f%%) 입니다.", top.Label(), share.Percentage))
	}

	if report.TotalSavedEmission > 0 {
		analysis.WriteString(n.printer.Sprintf(" 친환경 이동으로 %.2f kg을 줄이고 %d원을 아꼈어요.", report.TotalSavedEmission, int(report.SavedMoney)))
	}

	return ecojourney.Narrative{
		Analysis:    strings.TrimSpace(analysis.String()),
		Suggestions: n.suggest(ranked),
	}, nil
}

func (n *Narrator) suggest(ranked []ecojourney.Category) []string {
	result := make([]string, 0, n.maxSuggestions)

	// one suggestion per category first, then the second ones
	for round := 0; round < 2; round++ {
		for _, category := range ranked {
			if len(result) >= n.maxSuggestions {
				return result
			}
			if round < len(suggestions[category]) {
				result = append(result, suggestions[category][round])
			}
		}
	}

	return result
}

// rankCategories returns the categories that emitted something, heaviest first.
func rankCategories(report *ecojourney.Report) []ecojourney.Category {
	ranked := make([]ecojourney.Category, 0, len(report.CategoryBreakdown))
	for _, category := range ecojourney.Categories {
		if report.CategoryBreakdown[category].Emission > 0 {
			ranked = append(ranked, category)
		}
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return report.CategoryBreakdown[ranked[i]].Emission > report.CategoryBreakdown[ranked[j]].Emission
	})

	return ranked
}
