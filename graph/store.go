// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package graph

import (
	"fmt"
	"log/slog"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/poiesic/datakg/core"
	"github.com/poiesic/datakg/normalize"
)

// entry is an index slot. An entry is live while its sequence number matches
// the one recorded for its triple; removed or re-added triples leave stale
// slots behind until the next compaction.
type entry struct {
	t   Triple
	seq uint64
}

// Store is an in-memory triple store indexed by subject, predicate and
// object. Iteration always follows insertion order. Store is safe for
// concurrent use; writers are serialized.
type Store struct {
	mu sync.RWMutex

	seq      uint64
	live     map[Triple]uint64
	all      []entry
	bySubj   map[Term][]entry
	byPred   map[Term][]entry
	byObj    map[Term][]entry
	stale    int
	datasets map[string]Term

	logger *slog.Logger
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger used by the store.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewStore returns an empty store.
func NewStore(opts ...Option) *Store {
	s := &Store{
		live:     make(map[Triple]uint64),
		bySubj:   make(map[Term][]entry),
		byPred:   make(map[Term][]entry),
		byObj:    make(map[Term][]entry),
		datasets: make(map[string]Term),
		logger:   slog.Default().With("component", "graph-store"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// DatasetIRI returns the IRI minted for a dataset identifier.
func DatasetIRI(id string) Term { return IRI(DatasetNamespace + iriSafe(id)) }

// ResourceIRI returns the IRI minted for a distribution identifier.
func ResourceIRI(id string) Term { return IRI(ResourceNamespace + iriSafe(id)) }

// PublisherIRI returns the IRI shared by every dataset of a publisher.
func PublisherIRI(name string) Term {
	return IRI(PublisherNamespace + iriSafe(normalize.Label(name)))
}

// TagIRI returns the IRI of a keyword concept.
func TagIRI(tag string) Term { return IRI(TagNamespace + iriSafe(normalize.Label(tag))) }

// GroupIRI returns the IRI of a theme concept.
func GroupIRI(group string) Term { return IRI(GroupNamespace + iriSafe(normalize.Label(group))) }

// PublisherName recovers a display name from a publisher IRI.
func PublisherName(iri string) string {
	name := strings.TrimPrefix(iri, PublisherNamespace)
	return strings.ReplaceAll(unescapeIRI(name), "_", " ")
}

// DatasetID recovers the dataset identifier from a dataset IRI. It reports
// false for IRIs outside the dataset namespace.
func DatasetID(iri string) (string, bool) {
	if !strings.HasPrefix(iri, DatasetNamespace) {
		return "", false
	}
	return unescapeIRI(strings.TrimPrefix(iri, DatasetNamespace)), true
}

// Add inserts triples. Triples already present are ignored.
func (s *Store) Add(triples ...Triple) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range triples {
		s.add(t)
	}
}

// Remove deletes triples. Absent triples are ignored.
func (s *Store) Remove(triples ...Triple) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range triples {
		s.remove(t)
	}
	s.maybeCompact()
}

// Has reports whether the triple is present.
func (s *Store) Has(t Triple) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.live[t]
	return ok
}

// Len returns the number of triples.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.live)
}

// Triples returns every triple in insertion order.
func (s *Store) Triples() []Triple {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Triple, 0, len(s.live))
	for _, e := range s.all {
		if s.isLive(e) {
			out = append(out, e.t)
		}
	}
	return out
}

// Match returns the triples matching a pattern. A zero Term in any position
// matches anything.
func (s *Store) Match(subj, pred, obj Term) []Triple {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []Triple
	s.match(subj, pred, obj, func(t Triple) {
		out = append(out, t)
	})
	return out
}

// AddDataset writes the dataset's triples. Adding a dataset whose ID is
// already present replaces its statements, so repeated builds never
// duplicate entities. Similarity links of a replaced dataset are kept; the
// linker owns them. Publisher, tag and theme nodes are shared across
// datasets and created on first reference.
func (s *Store) AddDataset(d *core.Dataset) error {
	if err := core.ValidateDataset(d); err != nil {
		return core.NewError(core.ErrInput, "add dataset", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	ds := DatasetIRI(d.ID)
	var links []Term
	if _, ok := s.datasets[d.ID]; ok {
		s.match(ds, IRI(PropSimilarTo), Term{}, func(t Triple) { links = append(links, t.O) })
		s.removeDataset(d.ID)
	}
	s.datasets[d.ID] = ds
	for _, other := range links {
		s.add(Triple{ds, IRI(PropSimilarTo), other})
		s.add(Triple{other, IRI(PropSimilarTo), ds})
	}

	s.add(Triple{ds, IRI(PropType), IRI(ClassDataset)})
	s.add(Triple{ds, IRI(PropTitle), Literal(d.Title)})
	s.add(Triple{ds, IRI(PropDescription), Literal(d.Description)})

	if d.HasPublisher() {
		pub := PublisherIRI(d.Publisher)
		s.add(Triple{pub, IRI(PropType), IRI(ClassAgent)})
		s.add(Triple{pub, IRI(PropName), Literal(d.Publisher)})
		s.add(Triple{ds, IRI(PropPublisher), pub})
	}

	for _, tag := range d.Tags {
		c := TagIRI(tag)
		s.add(Triple{c, IRI(PropType), IRI(ClassConcept)})
		s.add(Triple{c, IRI(PropPrefLabel), Literal(tag)})
		s.add(Triple{ds, IRI(PropKeyword), c})
	}
	for _, theme := range d.Themes {
		c := GroupIRI(theme)
		s.add(Triple{c, IRI(PropType), IRI(ClassConcept)})
		s.add(Triple{c, IRI(PropPrefLabel), Literal(theme)})
		s.add(Triple{ds, IRI(PropTheme), c})
	}

	if d.Created != 0 {
		s.add(Triple{ds, IRI(PropCreated), TypedLiteral(strconv.Itoa(d.Created), XSDGYear)})
	}
	if d.Modified != 0 {
		s.add(Triple{ds, IRI(PropModified), TypedLiteral(strconv.Itoa(d.Modified), XSDGYear)})
	}
	if d.Page != "" {
		s.add(Triple{ds, IRI(PropLandingPage), IRI(urlSafe(d.Page))})
	}
	if d.License != "" {
		s.add(Triple{ds, IRI(PropLicense), Literal(d.License)})
	}

	for _, dist := range d.Distributions {
		r := ResourceIRI(dist.ID)
		s.add(Triple{r, IRI(PropType), IRI(ClassDistribution)})
		if dist.Name != "" {
			s.add(Triple{r, IRI(PropTitle), Literal(dist.Name)})
		}
		if dist.URL != "" {
			s.add(Triple{r, IRI(PropDownloadURL), IRI(urlSafe(dist.URL))})
		}
		if dist.Format != "" {
			s.add(Triple{r, IRI(PropMediaType), Literal(dist.Format)})
		}
		s.add(Triple{ds, IRI(PropDistribution), r})
	}
	return nil
}

// RemoveDataset deletes a dataset, its distributions and any similarity
// edges that reference it. Shared nodes left without references are
// removed too.
func (s *Store) RemoveDataset(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.datasets[id]; !ok {
		return false
	}
	s.removeDataset(id)
	s.maybeCompact()
	return true
}

func (s *Store) removeDataset(id string) {
	ds := s.datasets[id]
	delete(s.datasets, id)

	var doomed []Triple
	var shared []Term
	s.match(ds, Term{}, Term{}, func(t Triple) {
		doomed = append(doomed, t)
		switch t.P.Value {
		case PropDistribution:
			s.match(t.O, Term{}, Term{}, func(rt Triple) { doomed = append(doomed, rt) })
		case PropPublisher, PropKeyword, PropTheme:
			shared = append(shared, t.O)
		}
	})
	s.match(Term{}, IRI(PropSimilarTo), ds, func(t Triple) { doomed = append(doomed, t) })
	for _, t := range doomed {
		s.remove(t)
	}

	for _, node := range shared {
		if s.referenced(node) {
			continue
		}
		var orphan []Triple
		s.match(node, Term{}, Term{}, func(t Triple) { orphan = append(orphan, t) })
		for _, t := range orphan {
			s.remove(t)
		}
	}
}

// AddSimilarity asserts a similarity link in both directions.
func (s *Store) AddSimilarity(a, b string) error {
	if a == b {
		return core.NewError(core.ErrInput, "add similarity", errSelfLink)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	da, okA := s.datasets[a]
	db, okB := s.datasets[b]
	if !okA || !okB {
		return core.NewError(core.ErrNotFound, "add similarity", errUnknownDataset)
	}
	s.add(Triple{da, IRI(PropSimilarTo), db})
	s.add(Triple{db, IRI(PropSimilarTo), da})
	return nil
}

// ClearSimilarity removes every similarity link.
func (s *Store) ClearSimilarity() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	var doomed []Triple
	s.match(Term{}, IRI(PropSimilarTo), Term{}, func(t Triple) { doomed = append(doomed, t) })
	for _, t := range doomed {
		s.remove(t)
	}
	s.maybeCompact()
	return len(doomed)
}

// SimilarTo returns the IDs of datasets linked to id, in link order.
func (s *Store) SimilarTo(id string) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ds, ok := s.datasets[id]
	if !ok {
		return nil
	}
	var ids []string
	s.match(ds, IRI(PropSimilarTo), Term{}, func(t Triple) {
		ids = append(ids, datasetID(t.O))
	})
	return ids
}

// HasDataset reports whether a dataset with the identifier exists.
func (s *Store) HasDataset(id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.datasets[id]
	return ok
}

// DatasetIDs returns dataset identifiers in insertion order.
func (s *Store) DatasetIDs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var ids []string
	s.match(Term{}, IRI(PropType), IRI(ClassDataset), func(t Triple) {
		ids = append(ids, datasetID(t.S))
	})
	return ids
}

// Dataset reconstructs a dataset from its statements.
func (s *Store) Dataset(id string) (core.Dataset, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ds, ok := s.datasets[id]
	if !ok {
		return core.Dataset{}, false
	}
	return s.dataset(id, ds), true
}

// Datasets reconstructs every dataset in insertion order.
func (s *Store) Datasets() []core.Dataset {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []core.Dataset
	s.match(Term{}, IRI(PropType), IRI(ClassDataset), func(t Triple) {
		out = append(out, s.dataset(datasetID(t.S), t.S))
	})
	return out
}

func (s *Store) dataset(id string, ds Term) core.Dataset {
	d := core.Dataset{ID: id, Publisher: core.UnknownPublisher}
	s.match(ds, Term{}, Term{}, func(t Triple) {
		switch t.P.Value {
		case PropTitle:
			d.Title = t.O.Value
		case PropDescription:
			d.Description = t.O.Value
		case PropPublisher:
			if name := s.object(t.O, PropName); name != "" {
				d.Publisher = name
			} else {
				d.Publisher = PublisherName(t.O.Value)
			}
		case PropKeyword:
			d.Tags = append(d.Tags, s.object(t.O, PropPrefLabel))
		case PropTheme:
			d.Themes = append(d.Themes, s.object(t.O, PropPrefLabel))
		case PropCreated:
			n, _ := t.O.Int()
			d.Created = int(n)
		case PropModified:
			n, _ := t.O.Int()
			d.Modified = int(n)
		case PropLandingPage:
			d.Page = t.O.Value
		case PropLicense:
			d.License = t.O.Value
		case PropDistribution:
			d.Distributions = append(d.Distributions, core.Distribution{
				ID:     unescapeIRI(strings.TrimPrefix(t.O.Value, ResourceNamespace)),
				Name:   s.object(t.O, PropTitle),
				URL:    s.object(t.O, PropDownloadURL),
				Format: s.object(t.O, PropMediaType),
			})
		}
	})
	return d
}

// object returns the value of the first object of subj/pred, or "".
func (s *Store) object(subj Term, pred string) string {
	value := ""
	s.match(subj, IRI(pred), Term{}, func(t Triple) {
		if value == "" {
			value = t.O.Value
		}
	})
	return value
}

func (s *Store) referenced(node Term) bool {
	found := false
	s.match(Term{}, Term{}, node, func(Triple) { found = true })
	return found
}

func (s *Store) add(t Triple) {
	if _, ok := s.live[t]; ok {
		return
	}
	s.seq++
	e := entry{t: t, seq: s.seq}
	s.live[t] = s.seq
	s.all = append(s.all, e)
	s.bySubj[t.S] = append(s.bySubj[t.S], e)
	s.byPred[t.P] = append(s.byPred[t.P], e)
	s.byObj[t.O] = append(s.byObj[t.O], e)

	if t.P.Value == PropType && t.O.Value == ClassDataset && t.S.Kind == KindIRI {
		s.datasets[datasetID(t.S)] = t.S
	}
}

func (s *Store) remove(t Triple) {
	if _, ok := s.live[t]; !ok {
		return
	}
	delete(s.live, t)
	s.stale++
	if t.P.Value == PropType && t.O.Value == ClassDataset {
		delete(s.datasets, datasetID(t.S))
	}
}

func (s *Store) isLive(e entry) bool {
	seq, ok := s.live[e.t]
	return ok && seq == e.seq
}

// match calls fn for every live triple matching the pattern, scanning the
// shortest applicable index.
func (s *Store) match(subj, pred, obj Term, fn func(Triple)) {
	candidates := s.all
	pick := func(idx map[Term][]entry, key Term) {
		if key.IsZero() {
			return
		}
		if list := idx[key]; len(list) < len(candidates) {
			candidates = list
		}
	}
	if !subj.IsZero() {
		candidates = s.bySubj[subj]
	}
	pick(s.byPred, pred)
	pick(s.byObj, obj)

	for _, e := range candidates {
		if !s.isLive(e) {
			continue
		}
		if (!subj.IsZero() && e.t.S != subj) ||
			(!pred.IsZero() && e.t.P != pred) ||
			(!obj.IsZero() && e.t.O != obj) {
			continue
		}
		fn(e.t)
	}
}

// maybeCompact drops stale index slots once they dominate the live set.
func (s *Store) maybeCompact() {
	if s.stale < 1024 || s.stale < len(s.live) {
		return
	}
	keep := func(list []entry) []entry {
		out := list[:0]
		for _, e := range list {
			if s.isLive(e) {
				out = append(out, e)
			}
		}
		return out
	}
	s.all = keep(s.all)
	for _, idx := range []map[Term][]entry{s.bySubj, s.byPred, s.byObj} {
		for k, list := range idx {
			if list = keep(list); len(list) == 0 {
				delete(idx, k)
			} else {
				idx[k] = list
			}
		}
	}
	s.logger.Debug("compacted indexes", "removed", s.stale, "live", len(s.live))
	s.stale = 0
}

// Stats summarizes the store contents.
type Stats struct {
	Triples    int
	Datasets   int
	Predicates map[string]int
}

// Stats counts triples per predicate.
func (s *Store) Stats() Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st := Stats{Triples: len(s.live), Datasets: len(s.datasets), Predicates: make(map[string]int)}
	for t := range s.live {
		st.Predicates[t.P.Value]++
	}
	return st
}

// SortedPredicates returns predicate IRIs ordered by descending use.
func (st Stats) SortedPredicates() []string {
	preds := make([]string, 0, len(st.Predicates))
	for p := range st.Predicates {
		preds = append(preds, p)
	}
	sort.Slice(preds, func(i, j int) bool {
		if st.Predicates[preds[i]] != st.Predicates[preds[j]] {
			return st.Predicates[preds[i]] > st.Predicates[preds[j]]
		}
		return preds[i] < preds[j]
	})
	return preds
}

func datasetID(t Term) string {
	return unescapeIRI(strings.TrimPrefix(t.Value, DatasetNamespace))
}

// iriSafe percent-encodes the characters Turtle forbids inside an IRI
// reference, plus '%' itself, so unescapeIRI restores the input exactly.
func iriSafe(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch {
		case r == '%':
			b.WriteString("%25")
		case forbiddenInIRI(r):
			fmt.Fprintf(&b, "%%%02X", r)
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

// urlSafe is iriSafe for links that may already carry percent escapes,
// which are left alone.
func urlSafe(s string) string {
	var b strings.Builder
	for _, r := range s {
		if forbiddenInIRI(r) {
			fmt.Fprintf(&b, "%%%02X", r)
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func forbiddenInIRI(r rune) bool {
	switch r {
	case '<', '>', '"', '{', '}', '|', '^', '`', '\\':
		return true
	}
	return r <= 0x20
}

func unescapeIRI(s string) string {
	if !strings.Contains(s, "%") {
		return s
	}
	out, err := url.PathUnescape(s)
	if err != nil {
		return s
	}
	return out
}
