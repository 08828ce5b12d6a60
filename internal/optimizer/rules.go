package optimizer

import (
	"regexp"

	"go.uber.org/zap"
)

// Rule is one compiled rewrite rule. Rules are immutable after registry
// construction; BaseConfidence and Reasoning are copied verbatim into every
// candidate the rule produces.
type Rule struct {
	ID             string
	Category       EditCategory
	Pattern        string
	Replacement    string
	BaseConfidence float64
	Reasoning      string

	re *regexp.Regexp
}

// SynonymGroup describes an "<alt> and/or <preferred>" construction that can
// collapse to the shorter preferred term.
type SynonymGroup struct {
	Preferred      string
	Alternatives   []string
	BaseConfidence float64
	Reasoning      string
}

// CrossLanguageEntry maps an English term to an equal-or-fewer-token
// rendering in another language. Only the first case-insensitive occurrence
// in a text is matched.
type CrossLanguageEntry struct {
	English        string
	Replacement    string
	BaseConfidence float64
	Reasoning      string
}

type ruleSpec struct {
	pattern     string
	replacement string
	confidence  float64
	reasoning   string
}

var boilerplateRules = []ruleSpec{
	{`(?i)I would (really )?appreciate (it )?if you could( please)?\s*`, "", 0.97, "Common politeness boilerplate with no semantic value"},
	{`(?i)Please make sure to\s*`, "", 0.95, "Redundant instruction emphasis"},
	{`(?i)If you don't mind,?\s*`, "", 0.94, "Politeness filler"},
	{`(?i)Thank you (so much )?in advance for .+?[.!]`, "", 0.96, "Boilerplate gratitude (complete sentence)"},
	{`(?i)Thank you (so much )?in advance\s*`, "", 0.96, "Boilerplate gratitude"},
	{`(?i)I('m| am) looking for help with\s*`, "", 0.93, "Verbose help request prefix"},
	{`(?i)Could you please\s*`, "", 0.95, "Polite request prefix"},
	{`(?i)Would you mind\s*`, "", 0.94, "Polite request prefix"},
	{`(?i)I would (also )?like you to\s*`, "", 0.96, "Verbose instruction prefix"},
	{`(?i)\bmake sure to\s+`, "", 0.94, "Redundant instruction (standalone)"},
	{`(?i)It would be great if\s*`, "", 0.93, "Polite request prefix"},
	{`(?i)I need you to\s*`, "", 0.92, "Direct instruction prefix"},
	{`(?i)I was wondering if\s*`, "", 0.91, "Indirect question prefix"},
	{`(?i)I hope you('re| are) doing well\.?\s*`, "", 0.95, "Greeting boilerplate"},
	{`(?i)Hello!?\s*`, "", 0.90, "Greeting (unnecessary for prompts)"},
	{`(?i)I appreciate your help\.?\s*`, "", 0.94, "Gratitude boilerplate"},
	{`(?i)Thanks (so much )?for your (time|help)\.?\s*`, "", 0.95, "Gratitude boilerplate"},
	{`(?i)I hope this makes sense\.?\s*`, "", 0.91, "Uncertainty filler"},
	{`(?i)Let me know if you have (any )?questions\.?\s*`, "", 0.93, "Closing boilerplate"},
	{`(?i)Feel free to (ask|reach out)\.?\s*`, "", 0.92, "Permission boilerplate"},
	{`(?i)Any help would be (greatly )?appreciated\.?\s*`, "", 0.94, "Request boilerplate"},
	{`(?i)I('m| am) having trouble with\s*`, "", 0.90, "Problem statement prefix"},
	{`(?i)Can you help me (with )?\s*`, "", 0.93, "Help request prefix"},
	{`(?i)\bplease\b\s+`, "", 0.88, "Politeness filler (standalone)"},
	{`(?i)\bkindly\b\s+`, "", 0.85, "Politeness filler"},
}

var fillerRules = []ruleSpec{
	{`(?i)\breally\b`, "", 0.88, "Intensity modifier with minimal semantic value"},
	{`(?i)\bvery\b`, "", 0.85, "Intensity modifier, often redundant"},
	{`(?i)\bquite\b`, "", 0.87, "Vague intensity modifier"},
	{`(?i)\bjust\b`, "", 0.82, "Minimizer, often unnecessary"},
	{`(?i)\bactually\b`, "", 0.89, "Filler word"},
	{`(?i)\bbasically\b`, "", 0.90, "Approximation filler"},
	{`(?i)\bessentially\b`, "", 0.89, "Approximation filler"},
	{`(?i)\bdefinitely\b`, "", 0.86, "Emphasis filler"},
	{`(?i)\babsolutely\b`, "", 0.87, "Emphasis filler"},
	{`(?i)\bcertainly\b`, "", 0.85, "Emphasis filler"},
	{`(?i)\bprobably\b`, "", 0.80, "Hedge word"},
	{`(?i)\bmaybe\b`, "", 0.78, "Hedge word"},
	{`(?i)\bcarefully\b`, "", 0.83, "Manner adverb, often implicit"},
	{`(?i)\balso\b`, "", 0.81, "Additive conjunction, often redundant"},
	{`(?i)\bfurthermore\b`, "", 0.84, "Formal transition word"},
	{`(?i)\bmoreover\b`, "", 0.84, "Formal transition word"},
	{`(?i)\bindeed\b`, "", 0.86, "Emphatic filler"},
	{`(?i)\bin fact\b`, "", 0.85, "Emphatic phrase"},
	{`(?i)\bclearly\b`, "", 0.87, "Obviousness marker"},
	{`(?i)\bobviously\b`, "", 0.88, "Obviousness marker"},
	{`(?i)\bsimply\b`, "", 0.84, "Minimizer filler"},
	{`(?i)\bmerely\b`, "", 0.83, "Minimizer filler"},
	{`(?i)\bsomewhat\b`, "", 0.82, "Hedge word"},
	{`(?i)\brather\b`, "", 0.80, "Hedge word"},
	{`(?i)\bpotentially\b`, "", 0.81, "Hedge word"},
	{`(?i)\bpossibly\b`, "", 0.82, "Hedge word"},
	{`(?i)\bgenerally\b`, "", 0.83, "Generalization filler"},
	{`(?i)\bspecifically\b`, "", 0.79, "Specificity marker (may be important)"},
	{`(?i)\bparticularly\b`, "", 0.80, "Specificity marker (may be important)"},
	{`(?i)\bespecially\b`, "", 0.81, "Emphasis marker"},
	{`(?i)\bliterally\b`, "", 0.89, "Overused intensifier"},
}

var instructionRules = []ruleSpec{
	{`(?i)I want you to\s+`, "", 0.92, "Verbose instruction prefix"},
	{`(?i)I would like you to\s+`, "", 0.91, "Verbose instruction prefix"},
	{`(?i)I need you to\s+`, "", 0.93, "Direct instruction prefix"},
	{`(?i)I would also like you to\s+`, "", 0.91, "Verbose continuation"},
	{`(?i)take the time to\s+`, "", 0.94, "Verbose padding"},
	{`(?i)carefully\s+`, "", 0.83, "Implicit in technical tasks"},
}

var redundantRules = []ruleSpec{
	{`(?i)very\s+detailed\s+and\s+thorough`, "detailed", 0.92, "Redundant qualifiers"},
	{`(?i)detailed\s+and\s+thorough`, "detailed", 0.91, "Redundant qualifiers"},
	{`(?i)problems?\s+(or|and)\s+issues`, "issues", 0.89, "Synonyms"},
	{`(?i)bugs?\s+(or|and)\s+issues`, "bugs", 0.88, "Synonyms"},
	{`(?i)improve(d)?\s+or\s+optimize(d)?`, "optimized", 0.90, "Optimize is subset of improve"},
	{`(?i)that\s+I'?m\s+working\s+on`, "", 0.87, "Implied context"},
	{`(?i)that\s+you\s+might\s+find`, "", 0.86, "Implied action"},
	{`(?i)this\s+code\s+snippet`, "this code", 0.88, "Redundant 'snippet'"},
	{`(?i)any\s+potential\s+`, "", 0.85, "Redundant qualifiers"},
	{`(?i),?\s+and\s+why\s+it\s+was\s+implemented`, ", why implemented", 0.87, "Concise phrasing"},
	{`(?i)how\s+it\s+works,?\s+and\s+why`, "how/why", 0.86, "Conjunction slash"},
	{`(?i)provide\s+detailed\s+suggestions\s+on\s+how\s+to\s+fix`, "suggest fixes for", 0.89, "Concise phrasing"},
	{`(?i)If\s+you\s+find\s+any\s+`, "For any ", 0.84, "Passive conditional"},
	{`(?i)Provide\s+a\s+(?:very\s+)?detailed\s+(?:and\s+thorough\s+)?explanation\s+of\s+what\s+(?:the\s+)?code\s+does,?\s+how\s+it\s+works,?\s+and\s+why\s+it\s+was\s+implemented(?:\s+in\s+this\s+particular\s+way)?\.?`, "Explain: functionality, implementation, rationale.", 0.92, "Complete explanation compression"},
	{`(?i)look\s+into\s+(?:any\s+)?(?:potential\s+)?bugs?\s+or\s+issues\s+(?:that\s+you\s+might\s+find)?,?\s+and\s+(?:also\s+)?check\s+for\s+(?:any\s+)?performance\s+problems?\s+or\s+areas\s+where\s+(?:the\s+)?code\s+could\s+be\s+improved\s+or\s+optimized\.?`, "Identify: bugs, performance issues, improvements.", 0.91, "Combined bugs+performance compression"},
	{`(?i)Research\s+and\s+explain\s+whether\s+(?:this\s+)?code\s+follows\s+best\s+practices\s+and\s+coding\s+standards\.?`, "Verify best practices.", 0.90, "Research to verify compression"},
	{`(?i)If\s+you\s+find\s+(?:any\s+)?problems?\s+or\s+issues?,?\s+(?:please\s+)?provide\s+detailed\s+suggestions\s+on\s+how\s+to\s+fix\s+them\.?`, "Suggest fixes.", 0.91, "Final sentence compression"},
	{`(?i)Provide\s+a\s+detailed\s+explanation\s+of\s+`, "Explain: ", 0.89, "Verbose to colon format"},
	{`(?i)Look\s+into\s+any\s+`, "Identify ", 0.87, "Look into to identify"},
	{`(?i)check\s+for\s+any\s+`, "", 0.86, "Redundant check phrase"},
	{`(?i)in\s+this\s+particular\s+way`, "", 0.85, "Implied by context"},
	{`(?i)or\s+areas\s+where`, "", 0.83, "Redundant qualifier"},
	{`(?i)best\s+practices\s+and\s+coding\s+standards`, "best practices", 0.87, "Redundant pair"},
}

var structuralRules = []ruleSpec{
	{`\b(\d+)\s*kilometers?\b`, "${1}km", 0.93, "Normalize kilometers to km"},
	{`\b(\d+)\s*meters?\b`, "${1}m", 0.93, "Normalize meters to m"},
	{`\b(\d+)\s*minutes?\b`, "${1}min", 0.92, "Normalize minutes to min"},
	{`\b(\d+)\s*seconds?\b`, "${1}s", 0.92, "Normalize seconds to s"},
	{`\b(\d+)\s*percent\b`, "${1}%", 0.95, "Normalize percent to %"},
	{`\b(\d+)\s*dollars?\b`, "$$${1}", 0.90, "Normalize dollars to $ prefix"},
	{`\n\n\n+`, "\n\n", 0.95, "Collapse excessive newlines"},
	{`  +`, " ", 0.94, "Collapse multiple spaces to single space"},
	{`={3,}`, "", 0.88, "Remove decorative separators (===)"},
	{`-{3,}`, "", 0.88, "Remove decorative separators (---)"},
	{`\*{3,}`, "", 0.88, "Remove decorative separators (***)"},
	{`"description":\s*`, `"desc":`, 0.85, "Shorten JSON key: description to desc"},
	{`"configuration":\s*`, `"config":`, 0.85, "Shorten JSON key: configuration to config"},
	{`"parameters":\s*`, `"params":`, 0.85, "Shorten JSON key: parameters to params"},
	{`\.{2,}`, ".", 0.90, "Normalize ellipsis to single period"},
	{`!{2,}`, "!", 0.90, "Collapse multiple exclamation marks"},
	{`\?{2,}`, "?", 0.90, "Collapse multiple question marks"},
}

var synonymGroups = []SynonymGroup{
	{"analyze", []string{"look at", "examine", "inspect", "review"}, 0.89, "Consolidate to stronger verb 'analyze'"},
	{"research", []string{"look into", "investigate"}, 0.88, "Consolidate to 'research'"},
	{"verify", []string{"check", "confirm"}, 0.85, "Consolidate to 'verify'"},
	{"improve", []string{"enhance", "optimize"}, 0.87, "Consolidate to 'improve'"},
	{"explain", []string{"describe", "clarify"}, 0.84, "Consolidate to 'explain'"},
	{"provide", []string{"give", "supply"}, 0.86, "Consolidate to 'provide'"},
	{"create", []string{"make", "build", "generate"}, 0.83, "Consolidate to 'create'"},
	{"identify", []string{"find", "locate", "detect"}, 0.82, "Consolidate to 'identify'"},
}

// crossLanguageEntries lists only substitutions whose Mandarin rendering
// costs the same or fewer tokens than the English term under cl100k_base.
var crossLanguageEntries = []CrossLanguageEntry{
	{"verify", "验证", 0.94, "Verify - equal tokens, unambiguous meaning"},
	{"comprehensive", "全面", 0.90, "Comprehensive - equal tokens, clear meaning"},
	{"optimization", "优化", 0.93, "Optimization - equal tokens, technical term"},
	{"step by step", "逐步", 0.92, "Step by step - equal tokens, sequential"},
	{"issues", "问题", 0.92, "Issues - equal tokens, clear"},
	{"bugs", "错误", 0.93, "Bugs - equal tokens, unambiguous"},
	{"code", "代码", 0.94, "Code - equal tokens, technical term"},
}

// Registry holds the compiled rule set for a PatternEngine. It is built once
// and treated as immutable afterwards.
type Registry struct {
	rules         []Rule
	synonyms      []SynonymGroup
	substitutions []CrossLanguageEntry
}

// DefaultRegistry builds the registry from the embedded default tables.
func DefaultRegistry() *Registry {
	reg := &Registry{
		synonyms:      synonymGroups,
		substitutions: crossLanguageEntries,
	}
	reg.compile(CategoryStructural, structuralRules, nil)
	reg.compile(CategoryBoilerplate, boilerplateRules, nil)
	reg.compile(CategoryInstruction, instructionRules, nil)
	reg.compile(CategoryRedundant, redundantRules, nil)
	reg.compile(CategoryFiller, fillerRules, nil)
	return reg
}

// NewRegistry compiles externally loaded rules (e.g. from the store).
// Rules that fail to compile are skipped with a warning; the rest proceed.
func NewRegistry(rules []Rule, logger *zap.Logger) *Registry {
	reg := &Registry{
		synonyms:      synonymGroups,
		substitutions: crossLanguageEntries,
	}
	reg.Extend(rules, logger)
	return reg
}

func (reg *Registry) compile(category EditCategory, specs []ruleSpec, logger *zap.Logger) {
	for _, s := range specs {
		re, err := regexp.Compile(s.pattern)
		if err != nil {
			if logger != nil {
				logger.Warn("skipping built-in rule", zap.String("pattern", s.pattern), zap.Error(err))
			}
			continue
		}
		reg.rules = append(reg.rules, Rule{
			Category:       category,
			Pattern:        s.pattern,
			Replacement:    s.replacement,
			BaseConfidence: s.confidence,
			Reasoning:      s.reasoning,
			re:             re,
		})
	}
}

// Extend compiles and appends externally loaded rules, typically ones
// persisted in the store. Rules that fail to compile are skipped with a
// warning.
func (reg *Registry) Extend(rules []Rule, logger *zap.Logger) {
	if logger == nil {
		logger = zap.NewNop()
	}
	for _, r := range rules {
		re, err := regexp.Compile(r.Pattern)
		if err != nil {
			logger.Warn("skipping rule with invalid pattern",
				zap.String("rule_id", r.ID),
				zap.String("pattern", r.Pattern),
				zap.Error(err),
			)
			continue
		}
		r.re = re
		reg.rules = append(reg.rules, r)
	}
}

// Rules returns the compiled regex rules.
func (reg *Registry) Rules() []Rule { return reg.rules }

// Len returns the number of compiled regex rules.
func (reg *Registry) Len() int { return len(reg.rules) }
