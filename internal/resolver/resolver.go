// Package resolver turns one raw merchant record into one verified
// identity record through a pre-clean call, a cascading query loop, and
// deterministic finalize rules. The language model only proposes
// candidates; every accept and reject decision happens here.
package resolver

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"merchlens/internal/costs"
	"merchlens/internal/logging"
	"merchlens/internal/records"
	"merchlens/internal/resilience"
	"merchlens/internal/services"
)

// Config wires the capability ports and pricing into a Resolver.
type Config struct {
	Search  services.Search
	Model   services.LanguageModel
	Fetch   services.Fetch
	Retrier *resilience.Retrier
	Costs   costs.Table
	// ModelName selects the per-call cost of language-model calls.
	ModelName string
	// SocialPriority orders the platform fallback pick. Empty means
	// DefaultSocialPriority.
	SocialPriority []string
}

// Resolver resolves records. It holds no state across invocations.
type Resolver struct {
	search         services.Search
	model          services.LanguageModel
	fetch          services.Fetch
	places         services.PlaceLookup
	retrier        *resilience.Retrier
	costs          costs.Table
	modelName      string
	socialPriority []string
	logger         *slog.Logger
}

// Option customizes a Resolver.
type Option func(*Resolver)

// WithPlaceLookup enables the paid place lookup consulted before each web
// search (enhanced mode).
func WithPlaceLookup(places services.PlaceLookup) Option {
	return func(r *Resolver) {
		r.places = places
	}
}

// WithLogger attaches a logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Resolver) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// New constructs a Resolver.
func New(cfg Config, opts ...Option) (*Resolver, error) {
	if cfg.Search == nil || cfg.Model == nil || cfg.Fetch == nil {
		return nil, errors.New("resolver: search, model, and fetch ports required")
	}
	if cfg.Retrier == nil {
		cfg.Retrier = resilience.New(resilience.DefaultPolicy())
	}
	if len(cfg.SocialPriority) == 0 {
		cfg.SocialPriority = DefaultSocialPriority
	}
	r := &Resolver{
		search:         cfg.Search,
		model:          cfg.Model,
		fetch:          cfg.Fetch,
		retrier:        cfg.Retrier,
		costs:          cfg.Costs,
		modelName:      cfg.ModelName,
		socialPriority: cfg.SocialPriority,
		logger:         logging.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// resolution carries the working state of one Resolve call.
type resolution struct {
	cleanedName string
	website     string
	closed      bool
	closureNote string
	socials     []string
	trace       []string
	links       []string
	cost        float64
}

func (s *resolution) note(format string, args ...any) {
	s.trace = append(s.trace, fmt.Sprintf(format, args...))
}

// Resolve converts one RawRecord into one ResolvedRecord. On error the
// returned record still carries the evidence and cost accumulated so far,
// so a row-level failure keeps its audit trail and spend.
func (r *Resolver) Resolve(ctx context.Context, raw records.RawRecord) (records.ResolvedRecord, error) {
	state := &resolution{}

	if err := r.preClean(ctx, raw, state); err != nil {
		return r.partial(state), err
	}

	queries := buildQueries(state.cleanedName, raw.Address, raw.City, raw.Country)
	if len(queries) == 0 {
		state.note("no usable merchant name after cleaning; nothing to search")
		return r.finalize(state), nil
	}
	state.note("query plan (%d): %s", len(queries), strings.Join(queries, " | "))

	for i, query := range queries {
		done, err := r.tryQuery(ctx, query, i+1, raw, state)
		if err != nil {
			return r.partial(state), err
		}
		if done {
			break
		}
	}

	return r.finalize(state), nil
}

// preClean strips payment-aggregator noise from the raw name. A local
// prefix strip runs first so the model call starts from plausible text,
// then one model call proposes the cleaned form.
func (r *Resolver) preClean(ctx context.Context, raw records.RawRecord, state *resolution) error {
	local := stripAggregatorPrefix(raw.Name)
	state.cleanedName = normalizeDisplayName(local)

	cleaned, err := resilience.DoValue(ctx, r.retrier, "llm.remove_aggregator",
		func(ctx context.Context) (services.CleanedName, error) {
			return r.model.RemoveAggregator(ctx, raw.Name)
		})
	state.cost += r.costs.ModelCost(r.modelName)
	if err != nil {
		state.note("aggregator removal failed: %v", err)
		return fmt.Errorf("remove aggregator: %w", err)
	}
	if name := strings.TrimSpace(cleaned.CleanedName); name != "" {
		state.cleanedName = normalizeDisplayName(name)
	}
	if state.cleanedName != strings.TrimSpace(raw.Name) {
		state.note("pre-clean: %q -> %q (%s)", raw.Name, state.cleanedName, cleaned.Reason)
	} else {
		state.note("pre-clean: %q unchanged", raw.Name)
	}
	return nil
}

// tryQuery runs one step of the cascade. It returns done=true when the
// pipeline should halt: a website verified or a closure was observed.
func (r *Resolver) tryQuery(ctx context.Context, query string, ordinal int, raw records.RawRecord, state *resolution) (bool, error) {
	if r.places != nil {
		done, err := r.tryPlaceLookup(ctx, query, state)
		if err != nil {
			return false, err
		}
		if done {
			return true, nil
		}
	}

	results, err := resilience.DoValue(ctx, r.retrier, "search",
		func(ctx context.Context) ([]services.SearchResult, error) {
			return r.search.Search(ctx, query)
		})
	state.cost += r.costs.SearchQuery
	if err != nil {
		state.note("query %d %q: search failed: %v", ordinal, query, err)
		return false, fmt.Errorf("search %q: %w", query, err)
	}
	if len(results) == 0 {
		state.note("query %d %q: no results", ordinal, query)
		return false, nil
	}

	extraction, err := resilience.DoValue(ctx, r.retrier, "llm.extract",
		func(ctx context.Context) (services.Extraction, error) {
			return r.model.Extract(ctx, results, raw.Name, query)
		})
	state.cost += r.costs.ModelCost(r.modelName)
	if err != nil {
		state.note("query %d %q: extraction failed: %v", ordinal, query, err)
		return false, fmt.Errorf("extract for %q: %w", query, err)
	}

	if name := strings.TrimSpace(extraction.CleanedName); name != "" {
		state.cleanedName = normalizeDisplayName(name)
	}
	state.socials = append(state.socials, extraction.SocialCandidates...)
	state.note("query %d %q: %d results, %d website candidates, %d social candidates, status %s",
		ordinal, query, len(results), len(extraction.WebsiteCandidates), len(extraction.SocialCandidates),
		services.NormalizeBusinessStatus(extraction.BusinessStatus))

	// Closure is authoritative once observed. Verifying candidates of a
	// closed business risks matching a successor or squatter.
	if services.NormalizeBusinessStatus(extraction.BusinessStatus) == records.StatusClosed {
		state.closed = true
		state.closureNote = strings.TrimSpace(extraction.Summary)
		state.note("query %d %q: business reported permanently closed; stopping", ordinal, query)
		return true, nil
	}

	for _, candidate := range extraction.WebsiteCandidates {
		verified, err := r.verifyCandidate(ctx, candidate, state)
		if err != nil {
			return false, err
		}
		if verified {
			return true, nil
		}
	}
	return false, nil
}

// tryPlaceLookup consults the paid place service before the web search.
// Any website it proposes goes through the same fetch-and-verify gate as a
// search-extracted candidate.
func (r *Resolver) tryPlaceLookup(ctx context.Context, query string, state *resolution) (bool, error) {
	places, err := resilience.DoValue(ctx, r.retrier, "place.find",
		func(ctx context.Context) ([]services.Place, error) {
			return r.places.FindPlace(ctx, query)
		})
	state.cost += r.costs.PlaceLookup
	if err != nil {
		state.note("place lookup %q failed: %v", query, err)
		return false, fmt.Errorf("place lookup %q: %w", query, err)
	}
	if len(places) == 0 {
		state.note("place lookup %q: no match", query)
		return false, nil
	}
	for _, place := range places {
		if strings.TrimSpace(place.Website) == "" {
			continue
		}
		state.note("place lookup %q: %q proposes %s", query, place.Name, place.Website)
		verified, err := r.verifyCandidate(ctx, place.Website, state)
		if err != nil {
			return false, err
		}
		if verified {
			if name := strings.TrimSpace(place.Name); name != "" {
				state.cleanedName = normalizeDisplayName(name)
			}
			return true, nil
		}
	}
	return false, nil
}

// verifyCandidate fetches one website candidate and asks the model whether
// the page is a genuinely operational site. An unreachable candidate is
// skipped rather than failing the row; dead URLs are routine here.
func (r *Resolver) verifyCandidate(ctx context.Context, candidate string, state *resolution) (bool, error) {
	candidate = strings.TrimSpace(candidate)
	if candidate == "" {
		return false, nil
	}

	pageText, err := resilience.DoValue(ctx, r.retrier, "fetch",
		func(ctx context.Context) (string, error) {
			return r.fetch.Fetch(ctx, candidate)
		})
	state.cost += r.costs.WebsiteFetch
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return false, err
		}
		state.note("candidate %s unreachable: %v", candidate, err)
		return false, nil
	}
	state.links = append(state.links, candidate)
	if strings.TrimSpace(pageText) == "" {
		state.note("candidate %s: no page text to verify", candidate)
		return false, nil
	}

	verification, err := resilience.DoValue(ctx, r.retrier, "llm.verify_website",
		func(ctx context.Context) (services.Verification, error) {
			return r.model.VerifyWebsite(ctx, pageText, state.cleanedName)
		})
	state.cost += r.costs.ModelCost(r.modelName)
	if err != nil {
		state.note("candidate %s: verification failed: %v", candidate, err)
		return false, fmt.Errorf("verify %s: %w", candidate, err)
	}
	if verification.IsValid {
		state.website = candidate
		state.note("candidate %s verified valid: %s", candidate, verification.Reasoning)
		return true, nil
	}
	state.note("candidate %s rejected: %s", candidate, verification.Reasoning)
	return false, nil
}

// finalize applies the deterministic acceptance rules to whatever the
// cascade collected.
func (r *Resolver) finalize(state *resolution) records.ResolvedRecord {
	rec := records.ResolvedRecord{
		EvidenceLinks:   state.links,
		AccumulatedCost: state.cost,
	}

	switch {
	case state.closed:
		rec.Remarks = records.RemarkNotApplicable
		note := "business reported permanently closed or historical; record rejected"
		if state.closureNote != "" {
			note += ": " + state.closureNote
		}
		state.note("%s", note)
	case state.website != "":
		rec.CleanedName = state.cleanedName
		rec.Website = state.website
		rec.Remarks = records.RemarkAccepted
		state.note("accepted with verified website %s", state.website)
	case len(state.socials) > 0:
		candidates := dedupeOrdered(state.socials)
		best := pickSocial(candidates, r.socialPriority)
		rec.CleanedName = state.cleanedName
		rec.Socials = []string{best}
		rec.Remarks = records.RemarkWebsiteUnavailable
		rec.EvidenceLinks = append(rec.EvidenceLinks, best)
		state.note("no website verified; accepted social profile %s out of %d candidates", best, len(candidates))
	default:
		rec.Remarks = records.RemarkNotApplicable
		state.note("no verified website or social profile found; record rejected")
	}

	rec.Evidence = strings.Join(state.trace, "\n")
	rec.LogoFilename = records.LogoFilename(rec.Website, rec.Socials, rec.CleanedName)

	r.logger.Debug("record resolved",
		logging.String("cleaned_name", rec.CleanedName),
		logging.String("website", rec.Website),
		logging.String("remarks", rec.Remarks),
		logging.Float64("cost", rec.AccumulatedCost),
	)
	return rec
}

// partial packages the evidence and cost gathered before an error so the
// caller's failure record keeps the audit trail.
func (r *Resolver) partial(state *resolution) records.ResolvedRecord {
	return records.ResolvedRecord{
		Evidence:        strings.Join(state.trace, "\n"),
		EvidenceLinks:   state.links,
		AccumulatedCost: state.cost,
	}
}

// aggregatorPrefix matches processor-injected prefixes such as "SQ *",
// "TST* " or "PAYPAL *" at the head of a raw merchant name.
var aggregatorPrefix = regexp.MustCompile(`(?i)^(SQ|TST|PYPL|PAYPAL|PP|SP|AMZN MKTP|AMZN|GOOGLE|IC|POS|WL|EB|ZELLE)\s*\*\s*`)

func stripAggregatorPrefix(name string) string {
	name = strings.TrimSpace(name)
	for {
		stripped := aggregatorPrefix.ReplaceAllString(name, "")
		if stripped == name {
			return name
		}
		name = strings.TrimSpace(stripped)
	}
}

// normalizeDisplayName collapses whitespace and title-cases names that
// arrive fully upper-cased, a common artifact of transaction feeds.
func normalizeDisplayName(name string) string {
	name = strings.Join(strings.Fields(name), " ")
	if name == "" {
		return ""
	}
	hasLetter := strings.ContainsFunc(name, unicode.IsLetter)
	if hasLetter && name == strings.ToUpper(name) {
		return cases.Title(language.English).String(strings.ToLower(name))
	}
	return name
}
