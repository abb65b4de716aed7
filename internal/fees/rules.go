package fees

import (
	"regexp"
	"sort"
	"strconv"
	"strings"
	"unicode"

	"github.com/shopspring/decimal"
)

var digitRun = regexp.MustCompile(`\d+`)

// InstallmentCap is the largest installment count a rule tag can allow.
const InstallmentCap = 99

// ParseRange extracts the installment interval encoded in a rule tag.
// Bounds are clamped to [1, InstallmentCap]; a tag whose numbers do not
// fit that interval has no range.
//
//	"credito_2_6"   -> [2,6]
//	"credito_12_7"  -> [7,12]
//	"credito_3"     -> [3,3]
//	"credito_vista" -> [1,1]
//	"debito"        -> no range
func ParseRange(tag string) (Range, bool) {
	nums := digitRun.FindAllString(tag, -1)
	switch {
	case len(nums) >= 2:
		a, errA := strconv.Atoi(nums[0])
		b, errB := strconv.Atoi(nums[1])
		if errA != nil || errB != nil {
			return Range{}, false
		}
		if a > b {
			a, b = b, a
		}
		return clampRange(a, b)
	case len(nums) == 1:
		n, err := strconv.Atoi(nums[0])
		if err != nil {
			return Range{}, false
		}
		return clampRange(n, n)
	}
	if atSight(tag) {
		return Range{Min: 1, Max: 1}, true
	}
	return Range{}, false
}

func clampRange(lo, hi int) (Range, bool) {
	lo = max(lo, 1)
	hi = min(hi, InstallmentCap)
	if lo > hi {
		return Range{}, false
	}
	return Range{Min: lo, Max: hi}, true
}

func atSight(tag string) bool {
	t := Normalize(tag)
	if strings.Contains(t, "vista") {
		return true
	}
	tokens := strings.FieldsFunc(t, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	for _, tok := range tokens {
		if tok == "av" {
			return true
		}
	}
	return false
}

// CandidateRules returns the rules whose tag classifies into bucket b.
// Cash never has candidates.
func CandidateRules(b Bucket, rules []CardRule) []CardRule {
	if b == BucketCash {
		return nil
	}
	var out []CardRule
	for _, r := range rules {
		if Classify(r.Tag) == b {
			out = append(out, r)
		}
	}
	return out
}

// AllowedInstallments is the sorted union of every candidate range.
// PIX and cash sales are always paid at once.
func AllowedInstallments(b Bucket, rules []CardRule) []int {
	if b == BucketPIX || b == BucketCash {
		return []int{1}
	}
	seen := make(map[int]struct{})
	for _, r := range CandidateRules(b, rules) {
		rng, ok := ParseRange(r.Tag)
		if !ok {
			continue
		}
		for n := rng.Min; n <= rng.Max; n++ {
			seen[n] = struct{}{}
		}
	}
	if len(seen) == 0 {
		return []int{1}
	}
	out := make([]int, 0, len(seen))
	for n := range seen {
		out = append(out, n)
	}
	sort.Ints(out)
	return out
}

// IsAllowed reports whether n appears in allowed.
func IsAllowed(allowed []int, n int) bool {
	for _, a := range allowed {
		if a == n {
			return true
		}
	}
	return false
}

// PickRule returns the candidate whose range contains n, falling back to the
// first candidate. It reports false only when there are no candidates.
func PickRule(candidates []CardRule, n int) (CardRule, bool) {
	if len(candidates) == 0 {
		return CardRule{}, false
	}
	for _, r := range candidates {
		if rng, ok := ParseRange(r.Tag); ok && rng.Contains(n) {
			return r, true
		}
	}
	return candidates[0], true
}

// RuleTag is one entry in the catalogue of rule buckets a card can configure.
type RuleTag struct {
	Tag   string
	Label string
}

// RuleTags lists the buckets the cards screen edits, in display order.
var RuleTags = []RuleTag{
	{Tag: "debito", Label: "Débito à vista"},
	{Tag: "credito_vista", Label: "Crédito à vista"},
	{Tag: "credito_2_6", Label: "Crédito 2 a 6x"},
	{Tag: "credito_7_12", Label: "Crédito 7 a 12x"},
}

// FillRuleSet returns one rule per catalogue tag for cardID. Tags the
// backend has no rule for come back zeroed.
func FillRuleSet(cardID string, fetched []CardRule) []CardRule {
	byTag := make(map[string]CardRule, len(fetched))
	for _, r := range fetched {
		if _, dup := byTag[r.Tag]; !dup {
			byTag[r.Tag] = r
		}
	}
	out := make([]CardRule, 0, len(RuleTags))
	for _, rt := range RuleTags {
		r, ok := byTag[rt.Tag]
		if !ok {
			r = CardRule{
				PercentFee:              decimal.Zero,
				FixedFee:                decimal.Zero,
				PerInstallmentSurcharge: decimal.Zero,
			}
		}
		r.Tag = rt.Tag
		r.CardID = cardID
		out = append(out, r)
	}
	return out
}

// LabelFor returns the catalogue label for tag, or the tag itself.
func LabelFor(tag string) string {
	for _, rt := range RuleTags {
		if rt.Tag == tag {
			return rt.Label
		}
	}
	return tag
}
