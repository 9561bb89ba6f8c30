package parser

import (
	"fmt"
	"sort"
	"strings"

	"github.com/agnivade/levenshtein"
)

type Parser struct {
	registry *Registry
}

func New() *Parser {
	return &Parser{registry: DefaultRegistry()}
}

func (p *Parser) RegisterCommand(c CommandDef) {
	p.registry.RegisterCommand(c)
}

// Commands lists the canonical verbs the parser understands.
func (p *Parser) Commands() []string {
	return p.registry.Commands()
}

func (p *Parser) Parse(ctx ParseContext, raw string) Intent {
	intent := Intent{
		Raw:        raw,
		Normalised: normaliseInput(raw),
		Kind:       Unknown,
		Confidence: 0,
	}
	if intent.Normalised == "" {
		intent.Clarify = &ClarifyQuestion{Prompt: "Enter a command.", Options: nil}
		return intent
	}

	tokens := tokenise(intent.Normalised)
	cmdMatch, alternates := p.registry.matchCommand(tokens)
	if cmdMatch.Canonical == "" || cmdMatch.Score < 0.5 {
		if inferred := inferFreeTextIntent(ctx, intent.Raw, intent.Normalised); inferred != nil {
			return *inferred
		}
		intent.Clarify = &ClarifyQuestion{
			Prompt: "I couldn't map that to a command. Try " + strings.Join(p.registry.Commands(), ", ") + ".",
		}
		return intent
	}

	if len(alternates) > 0 && (cmdMatch.Score-alternates[0].Score) < 0.05 && alternates[0].Score > 0.65 {
		intent.Clarify = &ClarifyQuestion{
			Prompt: "Did you mean:",
			Options: []Intent{
				{Raw: raw, Normalised: cmdMatch.Canonical, Kind: commandKind(cmdMatch.Canonical), Verb: cmdMatch.Canonical, Confidence: cmdMatch.Score},
				{Raw: raw, Normalised: alternates[0].Canonical, Kind: commandKind(alternates[0].Canonical), Verb: alternates[0].Canonical, Confidence: alternates[0].Score},
			},
		}
		return intent
	}

	intent.Verb = cmdMatch.Canonical
	intent.Kind = commandKind(intent.Verb)
	intent.Confidence = clampScore(cmdMatch.Score)
	def, _ := p.registry.command(intent.Verb)

	if def.RawArgs {
		intent.Args = rawArgs(raw, cmdMatch.Consumed)
		return finishArgs(intent, def)
	}

	argsTokens := tokens
	if cmdMatch.Consumed > 0 && len(tokens) >= cmdMatch.Consumed {
		argsTokens = tokens[cmdMatch.Consumed:]
	}
	argsTokens = dropFillers(argsTokens)
	if def.Quantity {
		argsTokens, intent.Quantity = splitQuantity(argsTokens)
	}

	resolvedArgs, clarify, argScore := p.resolveArgs(ctx, def, argsTokens)
	if clarify != nil {
		intent.Clarify = clarify
		intent.Confidence = 0.45
		return intent
	}
	intent.Args = resolvedArgs
	intent.Confidence = clampScore((intent.Confidence * 0.75) + (argScore * 0.25))

	// "light the smoker" means fuel it.
	if intent.Verb == "fuel" && len(intent.Args) == 1 && cmdMatch.Alias != "fuel" {
		intent.Args = append(intent.Args, "on")
	}

	if len(intent.Args) < def.MinArgs {
		if def.MinArgs > 0 && len(intent.Args) == 0 {
			if options := buildEntityOptions(ctx, def.Canonical, 5); len(options) > 0 {
				intent.Clarify = &ClarifyQuestion{
					Prompt:  fmt.Sprintf("What should I %s?", def.Canonical),
					Options: options,
				}
				intent.Confidence = 0.46
				return intent
			}
		}
		intent.Clarify = &ClarifyQuestion{Prompt: fmt.Sprintf("%s needs at least %d argument(s).", def.Canonical, def.MinArgs)}
		intent.Confidence = 0.42
		return intent
	}
	intent = finishArgs(intent, def)

	if intent.Confidence < 0.52 && intent.Clarify == nil {
		intent.Clarify = &ClarifyQuestion{Prompt: "I have low confidence in that parse. Please rephrase or pick a clearer command."}
	}
	return intent
}

func finishArgs(intent Intent, def CommandDef) Intent {
	if len(intent.Args) < def.MinArgs {
		intent.Clarify = &ClarifyQuestion{Prompt: fmt.Sprintf("%s needs at least %d argument(s).", def.Canonical, def.MinArgs)}
		intent.Confidence = 0.42
		return intent
	}
	if def.MaxArgs > 0 && len(intent.Args) > def.MaxArgs {
		intent.Args = append([]string(nil), intent.Args[:def.MaxArgs]...)
		intent.Confidence = clampScore(intent.Confidence - 0.05)
	}
	return intent
}

// rawArgs returns the typed words after the command, untouched.
func rawArgs(raw string, consumed int) []string {
	fields := strings.Fields(raw)
	if consumed >= len(fields) {
		return nil
	}
	return fields[consumed:]
}

func commandKind(verb string) IntentKind {
	switch verb {
	case "help":
		return Help
	case "inspect", "status":
		return Query
	default:
		return Command
	}
}

var fillers = map[string]bool{
	"the": true, "a": true, "an": true, "my": true, "to": true, "into": true,
	"in": true, "of": true, "with": true, "from": true, "for": true,
}

func dropFillers(tokens []string) []string {
	out := make([]string, 0, len(tokens))
	for i, token := range tokens {
		if fillers[token] {
			continue
		}
		// "take out the smoker", "fill up the barrel"
		if i == 0 && (token == "out" || token == "up") && len(tokens) > 1 {
			continue
		}
		out = append(out, token)
	}
	return out
}

func splitQuantity(tokens []string) ([]string, *Quantity) {
	if len(tokens) == 0 {
		return nil, nil
	}
	out := make([]string, 0, len(tokens))
	var q *Quantity
	for i := 0; i < len(tokens); i++ {
		token := tokens[i]
		if q != nil {
			out = append(out, token)
			continue
		}
		// "2 days" reads as one duration.
		if i+1 < len(tokens) {
			if candidate := parseQuantityToken(token + tokens[i+1]); candidate != nil && candidate.Unit != "count" {
				q = candidate
				i++
				continue
			}
		}
		if candidate := parseQuantityToken(token); candidate != nil {
			q = candidate
			continue
		}
		out = append(out, token)
	}
	return out, q
}

// entityPool is the set of names argument pos of verb is resolved against.
func entityPool(ctx ParseContext, verb string, pos int) []string {
	switch {
	case verb == "place" && pos == 0:
		return ctx.Kinds
	case verb == "fill" && pos == 1:
		return ctx.Items
	case verb == "lure" && pos == 1:
		return ctx.Animals
	case pos != 0:
		return nil
	}
	switch verb {
	case "fill", "tend", "take", "ruin", "fuel":
		return ctx.Processors
	case "disable", "lure", "clear":
		return ctx.Snares
	case "inspect":
		return mergeUnique(ctx.Processors, ctx.Snares)
	default:
		return nil
	}
}

// takesRest reports whether argument pos swallows every remaining word.
func takesRest(verb string, pos int) bool {
	return pos == 1 && (verb == "place" || verb == "fill")
}

func (p *Parser) resolveArgs(ctx ParseContext, def CommandDef, args []string) ([]string, *ClarifyQuestion, float64) {
	if len(args) == 0 {
		return nil, nil, 0.9
	}

	resolved := make([]string, 0, len(args))
	score := 0.9
	for i := 0; i < len(args); i++ {
		pos := len(resolved)
		token := args[i]
		if isPronoun(token) {
			if strings.TrimSpace(ctx.LastEntity) == "" {
				return nil, &ClarifyQuestion{Prompt: "What does that pronoun refer to?"}, 0.4
			}
			resolved = append(resolved, normaliseInput(ctx.LastEntity))
			score -= 0.08
			continue
		}

		joined := token
		if takesRest(def.Canonical, pos) {
			joined = strings.Join(args[i:], " ")
			i = len(args) - 1
		}

		pool := entityPool(ctx, def.Canonical, pos)
		if len(pool) == 0 {
			resolved = append(resolved, joined)
			score -= 0.02
			continue
		}

		// Names like "charcoal pit" span two words.
		if joined == token && i+1 < len(args) {
			try := token + " " + args[i+1]
			if _, s, _ := resolveEntity(try, pool); s > 0.9 {
				joined = try
				i++
			}
		}
		entity, confidence, tie := resolveEntity(joined, pool)
		if tie && len(entity) >= 2 {
			options := make([]Intent, 0, 2)
			for idx := 0; idx < 2; idx++ {
				options = append(options, Intent{
					Kind:       commandKind(def.Canonical),
					Verb:       def.Canonical,
					Args:       append(append([]string(nil), resolved...), entity[idx]),
					Confidence: confidence - float64(idx)*0.01,
				})
			}
			return nil, &ClarifyQuestion{
				Prompt:  fmt.Sprintf("Did you mean %s?", def.Canonical),
				Options: options,
			}, 0.52
		}
		if len(entity) == 1 {
			resolved = append(resolved, entity[0])
			score = minScore(score, confidence)
			continue
		}

		resolved = append(resolved, joined)
		score -= 0.02
	}
	return resolved, nil, clampScore(score)
}

func resolveEntity(token string, pool []string) ([]string, float64, bool) {
	n := normaliseInput(token)
	if n == "" {
		return nil, 0, false
	}
	return bestMatches(n, mergeUnique(pool, nil))
}

// Resolve fuzzily matches name against candidates and returns the candidate
// as given. ok is false when nothing is close or two candidates tie.
func Resolve(name string, candidates []string) (string, float64, bool) {
	n := normaliseInput(name)
	if n == "" || len(candidates) == 0 {
		return "", 0, false
	}
	byNorm := make(map[string]string, len(candidates))
	norms := make([]string, 0, len(candidates))
	for _, c := range candidates {
		k := normaliseInput(c)
		if k == "" {
			continue
		}
		if _, dup := byNorm[k]; dup {
			continue
		}
		byNorm[k] = c
		norms = append(norms, k)
	}
	matches, score, tie := bestMatches(n, norms)
	if tie || len(matches) == 0 {
		return "", score, false
	}
	return byNorm[matches[0]], score, true
}

func bestMatches(token string, all []string) ([]string, float64, bool) {
	if len(all) == 0 {
		return nil, 0, false
	}
	type scored struct {
		val   string
		score float64
	}

	results := make([]scored, 0, len(all))
	for _, cand := range all {
		score := 0.0
		switch {
		case token == cand:
			score = 1.0
		case strings.HasPrefix(cand, token) && len(token) >= 2:
			score = 0.9
		default:
			dist := levenshtein.ComputeDistance(token, cand)
			if dist > levenshteinLimit(len(cand)) {
				continue
			}
			score = 0.72 - (0.08 * float64(dist))
		}
		results = append(results, scored{val: cand, score: clampScore(score)})
	}
	if len(results) == 0 {
		return nil, 0, false
	}
	sort.SliceStable(results, func(i, j int) bool {
		if results[i].score == results[j].score {
			return results[i].val < results[j].val
		}
		return results[i].score > results[j].score
	})

	best := results[0]
	tie := len(results) > 1 && (best.score-results[1].score) < 0.05 && results[1].score > 0.6
	if tie {
		return []string{best.val, results[1].val}, best.score, true
	}
	return []string{best.val}, best.score, false
}

func buildEntityOptions(ctx ParseContext, verb string, maxOptions int) []Intent {
	seen := map[string]bool{}
	options := make([]Intent, 0, maxOptions)
	for _, entity := range entityPool(ctx, verb, 0) {
		n := normaliseInput(entity)
		if n == "" || seen[n] {
			continue
		}
		seen[n] = true
		options = append(options, Intent{
			Kind:       commandKind(verb),
			Verb:       verb,
			Args:       []string{n},
			Confidence: 0.88,
		})
		if len(options) >= maxOptions {
			break
		}
	}
	return options
}

func inferFreeTextIntent(ctx ParseContext, raw string, normalised string) *Intent {
	n := normalised
	makeIntent := func(kind IntentKind, verb string, args []string, confidence float64) *Intent {
		return &Intent{
			Raw:        raw,
			Normalised: normalised,
			Kind:       kind,
			Verb:       verb,
			Args:       args,
			Confidence: clampScore(confidence),
		}
	}
	// subject finds a processor named anywhere in the sentence.
	subject := func() string {
		tokens := tokenise(n)
		for i := range tokens {
			for _, width := range []int{2, 1} {
				if i+width > len(tokens) {
					continue
				}
				if m, s, tie := resolveEntity(strings.Join(tokens[i:i+width], " "), ctx.Processors); !tie && len(m) == 1 && s >= 0.9 {
					return m[0]
				}
			}
		}
		if containsAnyPhrase(n, "it", "that", "this") && ctx.LastEntity != "" {
			return normaliseInput(ctx.LastEntity)
		}
		return ""
	}

	if containsAnyPhrase(n, "put out", "douse", "extinguish", "let it go out", "stop burning") {
		if s := subject(); s != "" {
			return makeIntent(Command, "fuel", []string{s, "off"}, 0.8)
		}
	}
	if containsAnyPhrase(n, "is it done", "is it ready", "how is", "hows", "how s", "what about", "is done", "is ready") {
		if s := subject(); s != "" {
			return makeIntent(Query, "inspect", []string{s}, 0.78)
		}
		return makeIntent(Query, "status", nil, 0.7)
	}
	if containsAnyPhrase(n, "whats going on", "what s going on", "show everything", "show all", "overview") {
		return makeIntent(Query, "status", nil, 0.86)
	}
	if containsAnyPhrase(n, "smoke meat", "preserve meat", "cure meat", "smoke some meat") {
		if s := subject(); s != "" {
			return makeIntent(Command, "fill", []string{s}, 0.6)
		}
	}
	if containsWord(n, "wait") || containsAnyPhrase(n, "let time pass", "pass time") {
		intent := makeIntent(Command, "tick", nil, 0.7)
		_, intent.Quantity = splitQuantity(tokenise(n))
		return intent
	}
	return nil
}

func containsAnyPhrase(value string, phrases ...string) bool {
	for _, phrase := range phrases {
		if containsPhrase(value, phrase) {
			return true
		}
	}
	return false
}

func containsPhrase(value, phrase string) bool {
	p := normaliseInput(phrase)
	if p == "" {
		return false
	}
	return strings.Contains(" "+value+" ", " "+p+" ")
}

func containsWord(value, word string) bool {
	w := normaliseInput(word)
	if w == "" {
		return false
	}
	return strings.Contains(" "+value+" ", " "+w+" ")
}

func mergeUnique(a, b []string) []string {
	seen := map[string]bool{}
	out := make([]string, 0, len(a)+len(b))
	add := func(list []string) {
		for _, v := range list {
			n := normaliseInput(v)
			if n == "" || seen[n] {
				continue
			}
			seen[n] = true
			out = append(out, n)
		}
	}
	add(a)
	add(b)
	return out
}

func minScore(a, b float64) float64 {
	if b < a {
		return b
	}
	return a
}

func clampScore(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func IntentToCommandString(intent Intent) string {
	verb := normaliseInput(intent.Verb)
	if verb == "" {
		return ""
	}
	args := make([]string, 0, len(intent.Args)+1)
	for _, arg := range intent.Args {
		n := normaliseInput(arg)
		if n != "" {
			args = append(args, n)
		}
	}
	if intent.Quantity != nil && intent.Quantity.Raw != "" {
		args = append(args, normaliseInput(intent.Quantity.Raw))
	}
	if len(args) == 0 {
		return verb
	}
	return verb + " " + strings.Join(args, " ")
}
