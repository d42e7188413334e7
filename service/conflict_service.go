package service

import (
	"context"
	"log"
	"sort"
	"strings"

	"lexintake-backend/models"

	"github.com/google/uuid"
)

// MatterSource lists the matters a conflict scan runs against
type MatterSource interface {
	ListActiveByTeam(ctx context.Context, teamID uuid.UUID) ([]*models.Matter, error)
}

// ConflictRecorder persists conflict check results
type ConflictRecorder interface {
	Create(ctx context.Context, result *models.ConflictCheckResult) error
}

// ConflictCheckService scans existing matters for name conflicts with
// proposed parties. It never returns an error to callers: any internal
// failure degrades to a cleared:false result flagged for manual review.
type ConflictCheckService struct {
	matters  MatterSource
	recorder ConflictRecorder
}

// ConflictCheckServiceOption is a functional option for ConflictCheckService
type ConflictCheckServiceOption func(*ConflictCheckService)

// ConflictWithMatterSource sets the matter source
func ConflictWithMatterSource(src MatterSource) ConflictCheckServiceOption {
	return func(s *ConflictCheckService) {
		s.matters = src
	}
}

// ConflictWithRecorder sets the result recorder
func ConflictWithRecorder(rec ConflictRecorder) ConflictCheckServiceOption {
	return func(s *ConflictCheckService) {
		s.recorder = rec
	}
}

// NewConflictCheckService creates a new conflict check service
func NewConflictCheckService(opts ...ConflictCheckServiceOption) *ConflictCheckService {
	s := &ConflictCheckService{}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// similarityThreshold is the minimum Jaccard score for a related hit
const similarityThreshold = 0.7

// entitySuffixes are the corporate suffixes used for variant generation
var entitySuffixes = []string{"inc", "llc", "corp", "ltd", "co"}

// insignificantTokens are dropped before token-set comparison. They carry no
// identity: "ACME Corp" and "ACME Corporation LLC" are the same entity.
var insignificantTokens = map[string]bool{
	"inc": true, "inc.": true, "incorporated": true,
	"llc": true, "l.l.c.": true,
	"corp": true, "corp.": true, "corporation": true,
	"ltd": true, "ltd.": true, "limited": true,
	"co": true, "co.": true, "company": true,
}

// CheckConflicts scans the team's active matters for conflicts with the
// proposed parties. The matter being formed is excluded from the scan.
func (s *ConflictCheckService) CheckConflicts(ctx context.Context, teamID, matterID uuid.UUID, parties []string) *models.ConflictCheckResult {
	result := &models.ConflictCheckResult{
		MatterID:       matterID,
		TeamID:         teamID,
		PartiesChecked: parties,
		Hits:           make(models.ConflictHits, 0),
		CheckedBy:      "system",
	}

	if s.matters == nil {
		result.Cleared = false
		result.Notes = "conflict scan unavailable - manual review required"
		return result
	}

	existing, err := s.matters.ListActiveByTeam(ctx, teamID)
	if err != nil {
		log.Printf("conflict scan failed for team %s: %v", teamID, err)
		result.Cleared = false
		result.Notes = "conflict scan failed - manual review required"
		return result
	}

	var hits []models.ConflictHit
	for _, party := range parties {
		proposed := normalizeName(party)
		if proposed == "" {
			continue
		}

		for _, matter := range existing {
			if matter.ID == matterID {
				continue
			}
			hits = append(hits, matchParty(proposed, matter)...)
		}
	}

	result.Hits = dedupeHits(hits)
	result.Cleared = len(result.Hits) == 0
	return result
}

// RecordConflictCheck persists the result. Persistence failures are logged
// and swallowed; the check itself remains valid.
func (s *ConflictCheckService) RecordConflictCheck(ctx context.Context, result *models.ConflictCheckResult) {
	if s.recorder == nil {
		return
	}
	if err := s.recorder.Create(ctx, result); err != nil {
		log.Printf("failed to record conflict check for matter %s: %v", result.MatterID, err)
	}
}

// matchParty runs the three matching passes for one proposed party against
// one existing matter.
func matchParty(proposed string, matter *models.Matter) []models.ConflictHit {
	var hits []models.ConflictHit

	opposing := normalizeName(matter.OpposingParty)
	client := normalizeName(matter.ClientName)

	// Direct match: same opposing party on file. Exact equality, or the
	// proposed name fully containing the name on file.
	if opposing != "" && (proposed == opposing || strings.Contains(proposed, opposing)) {
		hits = append(hits, models.ConflictHit{
			MatterID:      matter.ID,
			OpposingParty: matter.OpposingParty,
			ConflictType:  models.ConflictDirect,
			Similarity:    1.0,
			Details:       "opposing party already named in an existing matter",
		})
	} else if opposing != "" {
		// Fuzzy match: variant substring search scored by token overlap
		if variantMatch(proposed, opposing) {
			score := jaccard(significantTokens(proposed), significantTokens(opposing))
			if score > similarityThreshold {
				hits = append(hits, models.ConflictHit{
					MatterID:      matter.ID,
					OpposingParty: matter.OpposingParty,
					ConflictType:  models.ConflictRelated,
					Similarity:    score,
					Details:       "name closely resembles an opposing party on file",
				})
			}
		}
	}

	// Client cross-match: a proposed opposing party colliding with an
	// existing client is suspicious regardless of string similarity.
	if client != "" && (strings.Contains(client, proposed) || strings.Contains(proposed, client)) {
		hits = append(hits, models.ConflictHit{
			MatterID:      matter.ID,
			OpposingParty: matter.ClientName,
			ConflictType:  models.ConflictPotential,
			Similarity:    0.9,
			Details:       "proposed opposing party matches an existing client",
		})
	}

	return hits
}

// normalizeName trims, lowercases and collapses whitespace
func normalizeName(name string) string {
	return strings.Join(strings.Fields(strings.ToLower(strings.TrimSpace(name))), " ")
}

// nameVariants generates search variants for a normalized name: the name
// itself, suffix-stripped and suffix-appended forms, and a first+last form
// when the name has three or more words.
func nameVariants(name string) []string {
	seen := map[string]bool{name: true}
	variants := []string{name}

	add := func(v string) {
		v = strings.TrimSpace(v)
		if v != "" && !seen[v] {
			seen[v] = true
			variants = append(variants, v)
		}
	}

	for _, suffix := range entitySuffixes {
		if strings.HasSuffix(name, " "+suffix) {
			add(strings.TrimSuffix(name, " "+suffix))
		}
		add(name + " " + suffix)
	}

	words := strings.Fields(name)
	if len(words) >= 3 {
		add(words[0] + " " + words[len(words)-1])
	}

	return variants
}

// variantMatch reports whether any variant of the proposed name
// substring-matches the candidate, in either direction
func variantMatch(proposed, candidate string) bool {
	for _, variant := range nameVariants(proposed) {
		if strings.Contains(candidate, variant) || strings.Contains(variant, candidate) {
			return true
		}
	}
	return false
}

// significantTokens tokenizes a normalized name, dropping entity suffixes
func significantTokens(name string) map[string]bool {
	tokens := make(map[string]bool)
	for _, word := range strings.Fields(name) {
		if !insignificantTokens[word] {
			tokens[word] = true
		}
	}
	return tokens
}

// jaccard computes set similarity over two token sets
func jaccard(a, b map[string]bool) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}

	intersection := 0
	for token := range a {
		if b[token] {
			intersection++
		}
	}

	union := len(a) + len(b) - intersection
	return float64(intersection) / float64(union)
}

// conflictPriority orders hit types: direct before potential before related
func conflictPriority(t models.ConflictType) int {
	switch t {
	case models.ConflictDirect:
		return 0
	case models.ConflictPotential:
		return 1
	default:
		return 2
	}
}

// dedupeHits keeps one hit per (matterID, opposingParty), preferring the
// higher-priority type and then the higher similarity, and sorts the result.
func dedupeHits(hits []models.ConflictHit) models.ConflictHits {
	type key struct {
		matterID uuid.UUID
		party    string
	}

	best := make(map[key]models.ConflictHit)
	var order []key
	for _, hit := range hits {
		k := key{hit.MatterID, hit.OpposingParty}
		current, ok := best[k]
		if !ok {
			best[k] = hit
			order = append(order, k)
			continue
		}
		if conflictPriority(hit.ConflictType) < conflictPriority(current.ConflictType) ||
			(hit.ConflictType == current.ConflictType && hit.Similarity > current.Similarity) {
			best[k] = hit
		}
	}

	deduped := make(models.ConflictHits, 0, len(order))
	for _, k := range order {
		deduped = append(deduped, best[k])
	}

	sort.SliceStable(deduped, func(i, j int) bool {
		pi, pj := conflictPriority(deduped[i].ConflictType), conflictPriority(deduped[j].ConflictType)
		if pi != pj {
			return pi < pj
		}
		return deduped[i].Similarity > deduped[j].Similarity
	})

	return deduped
}
