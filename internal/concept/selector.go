package concept

// SelectionMode picks how a surface form is chosen among a concept's forms.
type SelectionMode string

const (
	// SelectMinTokens picks the globally cheapest form.
	SelectMinTokens SelectionMode = "min_tokens"
	// SelectSameLanguage restricts candidates to one language.
	SelectSameLanguage SelectionMode = "same_language"
	// SelectAllowedLanguages restricts candidates to a language set.
	SelectAllowedLanguages SelectionMode = "allowed_languages"
	// SelectPreferOriginal picks the cheapest form overall, but breaks
	// token-count ties in favor of the original language.
	SelectPreferOriginal SelectionMode = "prefer_original_language"
)

// SelectionPolicy is a selection mode plus its language parameters.
type SelectionPolicy struct {
	Mode      SelectionMode `json:"mode"`
	Language  string        `json:"language,omitempty"`
	Languages []string      `json:"languages,omitempty"`
}

// Select returns the best surface form under the policy, or nil when no
// candidate qualifies. Within equal token counts the earliest form wins,
// except under SelectPreferOriginal where the policy language wins ties.
func Select(forms []SurfaceForm, policy SelectionPolicy) *SurfaceForm {
	switch policy.Mode {
	case SelectSameLanguage:
		return minTokens(filter(forms, func(f SurfaceForm) bool {
			return f.Language == policy.Language
		}))
	case SelectAllowedLanguages:
		allowed := make(map[string]struct{}, len(policy.Languages))
		for _, l := range policy.Languages {
			allowed[l] = struct{}{}
		}
		return minTokens(filter(forms, func(f SurfaceForm) bool {
			_, ok := allowed[f.Language]
			return ok
		}))
	case SelectPreferOriginal:
		best := minTokens(forms)
		if best == nil || best.Language == policy.Language {
			return best
		}
		for i := range forms {
			if forms[i].TokenCount == best.TokenCount && forms[i].Language == policy.Language {
				return &forms[i]
			}
		}
		return best
	default:
		return minTokens(forms)
	}
}

// CalculateSavings reports how many tokens replacing originalText (costing
// originalTokens) with the form would save. The false return covers both a
// no-op replacement (identical text) and a non-positive saving.
func CalculateSavings(originalText string, originalTokens int, form *SurfaceForm) (int, bool) {
	if form == nil || form.Text == originalText {
		return 0, false
	}
	savings := originalTokens - form.TokenCount
	if savings <= 0 {
		return 0, false
	}
	return savings, true
}

func filter(forms []SurfaceForm, keep func(SurfaceForm) bool) []SurfaceForm {
	var out []SurfaceForm
	for _, f := range forms {
		if keep(f) {
			out = append(out, f)
		}
	}
	return out
}

func minTokens(forms []SurfaceForm) *SurfaceForm {
	if len(forms) == 0 {
		return nil
	}
	best := 0
	for i := 1; i < len(forms); i++ {
		if forms[i].TokenCount < forms[best].TokenCount {
			best = i
		}
	}
	return &forms[best]
}
