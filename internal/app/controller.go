// Package app is the facade views talk to. It owns the session's filter
// criteria and selection and decides when edits are saved.
package app

import (
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/ALT-F4-LLC/portfolio/internal/award"
	"github.com/ALT-F4-LLC/portfolio/internal/model"
	"github.com/ALT-F4-LLC/portfolio/internal/persist"
	"github.com/ALT-F4-LLC/portfolio/internal/query"
	"github.com/ALT-F4-LLC/portfolio/internal/store"
	remotesync "github.com/ALT-F4-LLC/portfolio/internal/sync"
)

// Durable is the committed store behind the live one.
type Durable interface {
	store.ChangeWriter
	Load() (*model.Snapshot, error)
	BatchDelete(kind model.EntityKind) ([]string, error)
}

// Options tune a Controller. Zero values select the defaults.
type Options struct {
	SaveDelay    time.Duration
	RecentWindow time.Duration
	Awards       []award.Award
	// OnError receives save and refresh errors, which are otherwise
	// swallowed.
	OnError   func(error)
	AfterFunc persist.AfterFunc
	Now       func() time.Time
}

// Controller exposes every operation a view needs.
type Controller struct {
	store      *store.Store
	durable    Durable
	scheduler  *persist.Scheduler
	reconciler *remotesync.Reconciler

	awards       []award.Award
	recentWindow time.Duration
	now          func() time.Time

	mu       sync.Mutex
	criteria model.FilterCriteria
	selected string
}

// flusher saves the store through the durable store.
type flusher struct {
	store *store.Store
	w     store.ChangeWriter
}

func (f flusher) HasChanges() bool { return f.store.HasChanges() }
func (f flusher) Flush() error     { return f.store.Save(f.w) }

// New wires a controller. The reconciler must have been built over the same
// store and durable store.
func New(s *store.Store, d Durable, r *remotesync.Reconciler, opts Options) *Controller {
	c := &Controller{
		store:        s,
		durable:      d,
		reconciler:   r,
		awards:       opts.Awards,
		recentWindow: opts.RecentWindow,
		now:          opts.Now,
		criteria:     model.DefaultCriteria(),
	}
	if c.awards == nil {
		c.awards = award.Builtin()
	}
	if c.recentWindow <= 0 {
		c.recentWindow = model.DefaultRecentWindow
	}
	if c.now == nil {
		c.now = time.Now
	}

	var popts []persist.Option
	if opts.OnError != nil {
		popts = append(popts, persist.WithErrorHandler(opts.OnError))
	}
	if opts.AfterFunc != nil {
		popts = append(popts, persist.WithAfterFunc(opts.AfterFunc))
	}
	c.scheduler = persist.New(flusher{store: s, w: d}, opts.SaveDelay, popts...)
	return c
}

// Store returns the live store for read-only lookups.
func (c *Controller) Store() *store.Store { return c.store }

// Criteria returns a copy of the current filter criteria.
func (c *Controller) Criteria() model.FilterCriteria {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.syncFilterLocked()
	return c.criteriaLocked()
}

// syncFilterLocked points a tag filter at the tag's current state. Tags can
// disappear or be renamed by a refresh or reconcile; a filter whose tag is
// gone falls back to the all filter.
func (c *Controller) syncFilterLocked() {
	sel := c.criteria.SelectedFilter.Tag
	if sel == nil {
		return
	}
	tag, err := c.store.Tag(sel.ID)
	if err != nil {
		c.criteria.SelectedFilter = model.AllFilter()
		return
	}
	if tag.Name != sel.Name {
		c.criteria.SelectedFilter = model.TagFilter(tag)
	}
}

func (c *Controller) criteriaLocked() model.FilterCriteria {
	cr := c.criteria
	cr.TagTokens = append([]string(nil), c.criteria.TagTokens...)
	return cr
}

// SetCriteria edits the filter criteria in place.
func (c *Controller) SetCriteria(edit func(*model.FilterCriteria)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	edit(&c.criteria)
}

// SelectAllFilter selects the filter matching every issue.
func (c *Controller) SelectAllFilter() {
	c.SetCriteria(func(cr *model.FilterCriteria) { cr.SelectedFilter = model.AllFilter() })
}

// SelectRecentFilter selects the filter for issues modified within the
// recent window.
func (c *Controller) SelectRecentFilter() {
	f := model.RecentFilter(c.recentWindow, c.now())
	c.SetCriteria(func(cr *model.FilterCriteria) { cr.SelectedFilter = f })
}

// SelectTagFilter selects the filter for issues related to a tag.
func (c *Controller) SelectTagFilter(tagID string) error {
	tag, err := c.store.Tag(tagID)
	if err != nil {
		return fmt.Errorf("selecting tag filter: %w", err)
	}
	c.SetCriteria(func(cr *model.FilterCriteria) { cr.SelectedFilter = model.TagFilter(tag) })
	return nil
}

// SmartFilters returns the built-in filters in sidebar order.
func (c *Controller) SmartFilters() []model.Filter {
	return []model.Filter{
		model.AllFilter(),
		model.RecentFilter(c.recentWindow, c.now()),
	}
}

// FilterCount returns how many issues f selects on its own, ignoring the
// rest of the criteria.
func (c *Controller) FilterCount(f model.Filter) int {
	cr := model.DefaultCriteria()
	cr.SelectedFilter = f
	return c.store.Count(query.Build(cr))
}

// Query returns the issues matching the current criteria, sorted.
func (c *Controller) Query() []model.Issue {
	return query.Run(c.store, c.Criteria())
}

// SuggestedTags returns tags matching a "#" prefixed search text.
func (c *Controller) SuggestedTags() []model.Tag {
	return query.SuggestedTags(c.store.Tags(), c.Criteria().FreeText)
}

// MissingTags returns the tags the issue does not have.
func (c *Controller) MissingTags(issueID string) ([]model.Tag, error) {
	issue, err := c.store.Issue(issueID)
	if err != nil {
		return nil, fmt.Errorf("issue %s: %w", issueID, err)
	}
	return query.MissingTags(c.store.Tags(), issue), nil
}

// NewIssue creates an issue, relates it to the tag of the selected tag
// filter if any, saves, and selects it.
func (c *Controller) NewIssue() (model.Issue, error) {
	var tagID string
	if tag := c.Criteria().SelectedFilter.Tag; tag != nil {
		tagID = tag.ID
	}

	issue, err := c.store.NewIssue(tagID)
	if err != nil && tagID != "" && errors.Is(err, store.ErrNotFound) {
		// The tag went away between reading the criteria and creating.
		issue, err = c.store.NewIssue("")
	}
	if err != nil {
		return model.Issue{}, err
	}
	c.SaveNow()

	c.mu.Lock()
	c.selected = issue.ID
	c.mu.Unlock()
	return issue, nil
}

// NewTag creates a tag and saves.
func (c *Controller) NewTag() model.Tag {
	tag := c.store.NewTag()
	c.SaveNow()
	return tag
}

// Delete removes an issue or tag and saves.
func (c *Controller) Delete(e model.Entity) error {
	if err := c.store.Delete(e); err != nil {
		return err
	}

	c.mu.Lock()
	if e.EntityKind() == model.KindIssue && c.selected == e.EntityID() {
		c.selected = ""
	}
	if tag := c.criteria.SelectedFilter.Tag; e.EntityKind() == model.KindTag && tag != nil && tag.ID == e.EntityID() {
		c.criteria.SelectedFilter = model.AllFilter()
	}
	c.mu.Unlock()

	c.SaveNow()
	return nil
}

// DeleteAll removes every tag and issue. Committed entities are removed
// from the durable store in bulk; the removed IDs are then reconciled into
// the live store.
func (c *Controller) DeleteAll() error {
	c.SaveNow()

	for _, kind := range []model.EntityKind{model.KindTag, model.KindIssue} {
		ids, err := c.durable.BatchDelete(kind)
		if err != nil {
			return fmt.Errorf("deleting all %ss: %w", kind, err)
		}
		c.reconciler.Reconcile(kind, ids)
	}

	// Anything still in memory was never committed. Deletes race with a
	// concurrent refresh, so an entity that is already gone is not an error.
	var errs []error
	for _, t := range c.store.Tags() {
		if err := c.store.Delete(t); err != nil && !errors.Is(err, store.ErrNotFound) {
			errs = append(errs, err)
		}
	}
	for _, i := range c.store.Issues() {
		if err := c.store.Delete(i); err != nil && !errors.Is(err, store.ErrNotFound) {
			errs = append(errs, err)
		}
	}

	c.mu.Lock()
	c.selected = ""
	c.criteria.SelectedFilter = model.AllFilter()
	c.mu.Unlock()

	c.SaveNow()
	return errors.Join(errs...)
}

// Count returns the number of issues matching pred. It never fails.
func (c *Controller) Count(pred query.Predicate) int {
	return c.store.Count(pred)
}

// Awards returns the award definitions.
func (c *Controller) Awards() []award.Award {
	return c.awards
}

// HasEarned reports whether the current counts reach the award.
func (c *Controller) HasEarned(a award.Award) bool {
	return award.HasEarned(a, c.store)
}

// ScheduleSave saves after the debounce delay, replacing any pending save.
func (c *Controller) ScheduleSave() { c.scheduler.ScheduleSave() }

// SaveNow saves immediately if there are changes.
func (c *Controller) SaveNow() { c.scheduler.SaveNow() }

// SavePending reports whether a delayed save is armed.
func (c *Controller) SavePending() bool { return c.scheduler.Pending() }

// Selected returns the selected issue, if it still exists.
func (c *Controller) Selected() (model.Issue, bool) {
	c.mu.Lock()
	id := c.selected
	c.mu.Unlock()

	if id == "" {
		return model.Issue{}, false
	}
	issue, err := c.store.Issue(id)
	if err != nil {
		return model.Issue{}, false
	}
	return issue, true
}

// Select makes an issue the selected one. An empty ID clears the selection.
func (c *Controller) Select(issueID string) error {
	if issueID != "" {
		if _, err := c.store.Issue(issueID); err != nil {
			return fmt.Errorf("selecting issue %s: %w", issueID, err)
		}
	}
	c.mu.Lock()
	c.selected = issueID
	c.mu.Unlock()
	return nil
}

// EditIssue applies a field edit and schedules a save.
func (c *Controller) EditIssue(id string, edit func(*model.Issue)) (model.Issue, error) {
	issue, err := c.store.UpdateIssue(id, edit)
	if err != nil {
		return model.Issue{}, err
	}
	c.ScheduleSave()
	return issue, nil
}

// ToggleCompleted flips the completed flag and saves.
func (c *Controller) ToggleCompleted(id string) (model.Issue, error) {
	issue, err := c.store.UpdateIssue(id, func(i *model.Issue) { i.Completed = !i.Completed })
	if err != nil {
		return model.Issue{}, err
	}
	c.SaveNow()
	return issue, nil
}

// RenameTag changes a tag's name and saves.
func (c *Controller) RenameTag(id, name string) (model.Tag, error) {
	tag, err := c.store.UpdateTag(id, func(t *model.Tag) { t.Name = name })
	if err != nil {
		return model.Tag{}, err
	}

	c.mu.Lock()
	if sel := c.criteria.SelectedFilter.Tag; sel != nil && sel.ID == id {
		c.criteria.SelectedFilter = model.TagFilter(tag)
	}
	c.mu.Unlock()

	c.SaveNow()
	return tag, nil
}

// AddTag relates an issue to a tag and schedules a save.
func (c *Controller) AddTag(issueID, tagID string) error {
	if err := c.store.AddTag(issueID, tagID); err != nil {
		return err
	}
	c.ScheduleSave()
	return nil
}

// RemoveTag removes a relationship and schedules a save.
func (c *Controller) RemoveTag(issueID, tagID string) error {
	if err := c.store.RemoveTag(issueID, tagID); err != nil {
		return err
	}
	c.ScheduleSave()
	return nil
}

// CreateSampleData adds the sample tags and issues and saves.
func (c *Controller) CreateSampleData(rng *rand.Rand) {
	c.store.CreateSampleData(rng)
	c.SaveNow()
}

// Subscribe registers for store change notifications.
func (c *Controller) Subscribe() (<-chan store.Event, func()) {
	return c.store.Subscribe()
}

// Refresh merges the durable store's current contents into the live store.
func (c *Controller) Refresh() {
	c.reconciler.Refresh()

	c.mu.Lock()
	c.syncFilterLocked()
	c.mu.Unlock()
}

// Close saves outstanding changes and stops background work.
func (c *Controller) Close() error {
	c.SaveNow()
	c.scheduler.Stop()
	return c.reconciler.Close()
}
