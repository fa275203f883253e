package query

import "time"

// Filters are the narrowing fields of a history view.
type Filters struct {
	Query   string `json:"query,omitempty"`
	Program string `json:"program,omitempty"`
	Prize   string `json:"prize,omitempty"`
	From    string `json:"from,omitempty"`
	To      string `json:"to,omitempty"`
}

// ViewState is the per-user state of a history view. Page numbers are kept
// per tab so returning to a tab restores where the user left it; sort and
// page size are shared by all tabs.
type ViewState struct {
	Tab      Tab         `json:"tab"`
	Filters  Filters     `json:"filters"`
	Sort     Sort        `json:"sort"`
	PageSize int         `json:"pageSize"`
	Pages    map[Tab]int `json:"pages"`
}

// NewViewState returns the state of a freshly opened history view.
func NewViewState() *ViewState {
	return &ViewState{
		Tab:      TabParticipants,
		Sort:     Sort{Key: SortDrawnAt, Direction: Desc},
		PageSize: DefaultPageSize,
		Pages:    map[Tab]int{},
	}
}

// Page returns the page of the active tab.
func (s *ViewState) Page() int {
	if p := s.Pages[s.activeTab()]; p >= 1 {
		return p
	}
	return 1
}

// SetPage stores the page for the active tab.
func (s *ViewState) SetPage(page int) {
	if page < 1 {
		page = 1
	}
	s.pages()[s.activeTab()] = page
}

// SetFilters replaces the filters; any change sends every tab back to page 1.
func (s *ViewState) SetFilters(f Filters) {
	if f == s.Filters {
		return
	}
	s.Filters = f
	s.resetPages()
}

// SetPageSize changes the page size and sends every tab back to page 1.
func (s *ViewState) SetPageSize(size int) {
	if size <= 0 {
		size = DefaultPageSize
	}
	if size == s.PageSize {
		return
	}
	s.PageSize = size
	s.resetPages()
}

// SetSort toggles the sort on key.
func (s *ViewState) SetSort(key SortKey) {
	s.Sort = s.Sort.Toggle(key)
}

// SwitchTab activates tab; its cached page, if any, becomes current again.
func (s *ViewState) SwitchTab(tab Tab) {
	s.Tab = ParseTab(string(tab))
}

// Criteria builds engine criteria from the state.
func (s *ViewState) Criteria(loc *time.Location) Criteria {
	return Criteria{
		Query:    s.Filters.Query,
		Program:  s.Filters.Program,
		Prize:    s.Filters.Prize,
		From:     s.Filters.From,
		To:       s.Filters.To,
		Tab:      s.activeTab(),
		Sort:     s.Sort,
		Page:     s.Page(),
		PageSize: s.PageSize,
		Location: loc,
	}
}

func (s *ViewState) activeTab() Tab {
	return ParseTab(string(s.Tab))
}

func (s *ViewState) pages() map[Tab]int {
	if s.Pages == nil {
		s.Pages = map[Tab]int{}
	}
	return s.Pages
}

func (s *ViewState) resetPages() {
	s.Pages = map[Tab]int{}
}
