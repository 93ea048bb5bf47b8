package handlers

import (
	"context"
	"encoding/json"
	"strconv"
	"strings"

	"clickat/internal/cache"
	"clickat/internal/clickup"
	"clickat/internal/due"
	"clickat/internal/feedback"
	"clickat/internal/settings"
)

// Markers separating the parts of a create query. Everything before the
// first marker is the task name.
//
//	buy milk :from the corner shop #errand @tomorrow 9.00 !3 +Groceries
const (
	markerContent  = ":"
	markerTag      = " #"
	markerDue      = " @"
	markerPriority = " !"
	markerList     = " +"
)

// createPayload is the contract between the suggestion pass and submit.
type createPayload struct {
	Name     string   `json:"name"`
	Content  string   `json:"content"`
	Due      string   `json:"due"` // textual timestamp, or "None"
	Priority *int     `json:"priority"`
	Tags     []string `json:"tags"`
	ListID   string   `json:"list_id,omitempty"`
	ListName string   `json:"list_name,omitempty"`
}

// HandleCreate runs the suggestion pass over a create query: duplicate
// marker diagnostics, label/priority/list autocompletion, and finally
// the confirmation item whose arg carries the parsed task as JSON.
func HandleCreate(c *Context, query string) []feedback.Item {
	if strings.TrimSpace(query) == "" {
		return []feedback.Item{{
			Title:    "Type a task name",
			Subtitle: "name :description #tag @due !priority +list",
			Valid:    false,
		}}
	}

	if item, dup := duplicateMarkerItem(query); dup {
		return []feedback.Item{item}
	}

	if items := c.suggestLabels(query); items != nil {
		return items
	}
	if items := c.suggestPriorities(query); items != nil {
		return items
	}
	listNameToID := map[string]string{}
	if items := c.suggestLists(query, listNameToID); items != nil {
		return items
	}

	// A query still ending in a bare marker is mid-edit.
	if strings.HasSuffix(query, markerTag) || strings.HasSuffix(query, markerPriority) || strings.HasSuffix(query, markerList) {
		return []feedback.Item{{
			Title:        "Keep typing...",
			Subtitle:     strings.TrimSpace(query),
			Valid:        false,
			Autocomplete: query,
		}}
	}

	payload := createPayload{
		Name:    nameFromQuery(query),
		Content: contentFromQuery(query),
		Tags:    c.tagsFromQuery(query),
	}
	payload.Priority = priorityFromQuery(query)

	if listName := listFromQuery(query); listName != "" {
		if id, ok := listNameToID[listName]; ok {
			payload.ListID = id
			payload.ListName = listName
		}
	}

	dueText, warn := c.resolveDue(query)
	if warn != nil {
		return []feedback.Item{*warn}
	}
	payload.Due = dueText

	arg, err := json.Marshal(payload)
	if err != nil {
		return []feedback.Item{{Title: "Could not encode task", Subtitle: err.Error(), Valid: false, Icon: feedback.IconWarning}}
	}

	return []feedback.Item{{
		Title:     "Create task \"" + payload.Name + "\"?",
		Subtitle:  summarize(payload),
		Valid:     true,
		Arg:       string(arg),
		Variables: map[string]string{"isSubmitted": "true"},
	}}
}

// duplicateMarkerItem flags a second description, priority or list
// marker; only one of each is allowed.
func duplicateMarkerItem(query string) (feedback.Item, bool) {
	checks := []struct {
		marker string
		title  string
		detail string
	}{
		{" :", "Description already defined.", "Remove the second ':' defining a description."},
		{markerPriority, "Priority already defined.", "Remove the second '!' defining a priority."},
		{markerList, "List already defined.", "Remove the second '+' defining a list."},
	}
	for _, check := range checks {
		if strings.Count(query, check.marker) > 1 {
			return feedback.Item{
				Title:        check.title,
				Subtitle:     check.detail,
				Valid:        false,
				Autocomplete: query + " ",
				Icon:         feedback.IconWarning,
			}, true
		}
	}
	return feedback.Item{}, false
}

// trailingSegment returns the text after the last occurrence of marker
// when the user is still typing it: nothing but the segment may follow,
// and the query must not already end in a space.
func trailingSegment(query, marker string) (string, bool) {
	idx := strings.LastIndex(query, marker)
	if idx < 0 || strings.HasSuffix(query, " ") {
		return "", false
	}
	segment := query[idx+len(marker):]
	for _, other := range []string{markerTag, markerDue, markerPriority, markerList} {
		if other != marker && strings.Contains(segment, other) {
			return "", false
		}
	}
	return segment, true
}

// replaceInput swaps the partial input at the end of the query for the
// chosen completion.
func replaceInput(query, input, completion string) string {
	return strings.TrimSuffix(query, input) + completion + " "
}

func (c *Context) suggestLabels(query string) []feedback.Item {
	input, ok := trailingSegment(query, markerTag)
	if !ok {
		return nil
	}

	tags, err := c.cachedTags()
	if err != nil {
		c.Log.Debug("label fetch failed: %v", err)
		return []feedback.Item{connectivityItem()}
	}

	var items []feedback.Item
	for _, tag := range tags {
		if input == "" || strings.Contains(strings.ToLower(tag.Name), strings.ToLower(input)) {
			items = append(items, feedback.Item{
				Title:        tag.Name,
				Valid:        false,
				Autocomplete: replaceInput(query, input, tag.Name),
				Icon:         feedback.IconLabel,
			})
		}
	}
	// No match means the user is entering a custom tag; let the
	// confirmation item through instead.
	return items
}

func (c *Context) suggestPriorities(query string) []feedback.Item {
	input, ok := trailingSegment(query, markerPriority)
	if !ok {
		return nil
	}

	priorities := []struct {
		tier string
		name string
	}{
		{"1", "Urgent"},
		{"2", "High"},
		{"3", "Normal"},
		{"4", "Low"},
	}

	var items []feedback.Item
	for _, p := range priorities {
		if input == "" || strings.HasPrefix(p.tier, input) || strings.HasPrefix(strings.ToLower(p.name), strings.ToLower(input)) {
			items = append(items, feedback.Item{
				Title:        p.name,
				Valid:        false,
				Autocomplete: replaceInput(query, input, p.tier),
				Icon:         feedback.PriorityIcon(mustAtoi(p.tier)),
			})
		}
	}
	return items
}

func (c *Context) suggestLists(query string, nameToID map[string]string) []feedback.Item {
	lists, err := c.cachedLists()
	if err != nil {
		c.Log.Debug("list fetch failed: %v", err)
		lists = nil
	}
	for _, l := range lists {
		nameToID[l.Name] = l.ID
	}

	input, ok := trailingSegment(query, markerList)
	if !ok {
		return nil
	}

	var items []feedback.Item
	for _, l := range lists {
		if input == "" || strings.Contains(strings.ToLower(l.Name), strings.ToLower(input)) {
			items = append(items, feedback.Item{
				Title:        l.Name,
				Subtitle:     "ID: " + l.ID,
				Valid:        false,
				Autocomplete: replaceInput(query, input, l.Name),
				Icon:         feedback.IconNote,
			})
		}
	}
	return items
}

// cachedTags reads the space's labels through the TTL cache.
func (c *Context) cachedTags() ([]clickup.Tag, error) {
	var tags []clickup.Tag
	if c.Cache != nil {
		if hit, err := c.Cache.Get(cache.KeyLabels, cache.LabelsMaxAge, &tags); err == nil && hit {
			return tags, nil
		}
	}

	space := c.Settings.Get(settings.NameSpace)
	if space == "" {
		return nil, nil
	}
	client, err := c.apiClient()
	if err != nil {
		return nil, err
	}
	tags, err = client.GetSpaceTags(context.Background(), space)
	if err != nil {
		return nil, err
	}
	if c.Cache != nil {
		if err := c.Cache.Put(cache.KeyLabels, tags); err != nil {
			c.Log.Debug("label cache write failed: %v", err)
		}
	}
	return tags, nil
}

// cachedLists reads the lists of the configured folder, or the
// folderless lists of the configured space, through the TTL cache.
func (c *Context) cachedLists() ([]clickup.List, error) {
	folder := c.Settings.Get(settings.NameFolder)
	space := c.Settings.Get(settings.NameSpace)

	var key string
	switch {
	case folder != "":
		key = cache.PrefixListsFolder + folder
	case space != "":
		key = cache.PrefixListsSpace + space
	default:
		return nil, nil
	}

	var lists []clickup.List
	if c.Cache != nil {
		if hit, err := c.Cache.Get(key, cache.DefaultMaxAge, &lists); err == nil && hit {
			return lists, nil
		}
	}

	client, err := c.apiClient()
	if err != nil {
		return nil, err
	}
	if folder != "" {
		lists, err = client.GetFolderLists(context.Background(), folder)
	} else {
		lists, err = client.GetSpaceLists(context.Background(), space)
	}
	if err != nil {
		return nil, err
	}
	if c.Cache != nil {
		if err := c.Cache.Put(key, lists); err != nil {
			c.Log.Debug("list cache write failed: %v", err)
		}
	}
	return lists, nil
}

// cutAtMarkers truncates s at the first occurrence of any marker.
func cutAtMarkers(s string, markers ...string) string {
	for _, m := range markers {
		if i := strings.Index(s, m); i >= 0 {
			s = s[:i]
		}
	}
	return s
}

func nameFromQuery(query string) string {
	return strings.TrimSpace(cutAtMarkers(query, markerContent, markerTag, markerDue, markerPriority, markerList))
}

func contentFromQuery(query string) string {
	_, after, found := strings.Cut(query, markerContent)
	if !found {
		return ""
	}
	return strings.TrimSpace(cutAtMarkers(after, markerTag, markerDue, markerPriority, markerList))
}

// tagsFromQuery collects the default tag plus every distinct #tag.
func (c *Context) tagsFromQuery(query string) []string {
	var tags []string
	if dt := c.Settings.Get(settings.NameDefaultTag); dt != "" {
		tags = append(tags, dt)
	}

	rest := query
	for {
		idx := strings.Index(rest, markerTag)
		if idx < 0 {
			break
		}
		rest = rest[idx+len(markerTag):]
		tag := strings.TrimSpace(cutAtMarkers(rest, markerContent, markerDue, markerPriority, markerList, markerTag))
		if tag != "" && !contains(tags, tag) {
			tags = append(tags, tag)
		}
	}
	if tags == nil {
		tags = []string{}
	}
	return tags
}

func contains(values []string, v string) bool {
	for _, x := range values {
		if x == v {
			return true
		}
	}
	return false
}

// priorityFromQuery reads the digit after the priority marker; only
// tiers 1 through 4 count.
func priorityFromQuery(query string) *int {
	_, after, found := strings.Cut(query, markerPriority)
	if !found || after == "" {
		return nil
	}
	tier, err := strconv.Atoi(after[:1])
	if err != nil || tier < 1 || tier > 4 {
		return nil
	}
	return &tier
}

func listFromQuery(query string) string {
	_, after, found := strings.Cut(query, markerList)
	if !found {
		return ""
	}
	return strings.TrimSpace(cutAtMarkers(after, markerTag, markerDue, markerPriority))
}

// resolveDue turns the @-segment (or the configured default shorthand)
// into the textual timestamp the submit pass expects. A recognizably
// malformed time yields a warning item instead.
func (c *Context) resolveDue(query string) (string, *feedback.Item) {
	now := c.now()

	_, after, found := strings.Cut(query, markerDue)
	value := ""
	if found {
		value = strings.TrimSpace(cutAtMarkers(after, markerTag, markerPriority, markerList))
	}

	if value == "" {
		// No explicit due date: fall back to the configured shorthand.
		fallback := c.Settings.Get(settings.NameDueDate)
		if fallback == "" {
			return "None", nil
		}
		d, err := due.ParseShorthand(fallback)
		if err != nil {
			return "None", nil
		}
		return due.FormatPayload(now.Add(d)), nil
	}

	if t, err := due.ParseNatural(value, now); err != nil {
		return "", &feedback.Item{
			Title:        "Not a valid time.",
			Subtitle:     "Use 24h time with a dot - example: 15.00",
			Valid:        false,
			Autocomplete: query + " ",
			Icon:         feedback.IconWarning,
		}
	} else if t != nil {
		return due.FormatPayload(*t), nil
	}

	if d, err := due.ParseShorthand(strings.Fields(value)[0]); err == nil {
		return due.FormatPayload(now.Add(d)), nil
	}

	return "None", nil
}

// summarize builds the confirmation item's subtitle.
func summarize(p createPayload) string {
	var parts []string
	if p.Content != "" {
		parts = append(parts, p.Content)
	}
	if p.Due != "" && p.Due != "None" {
		parts = append(parts, "due "+p.Due)
	}
	if p.Priority != nil {
		parts = append(parts, "!"+strconv.Itoa(*p.Priority))
	}
	if len(p.Tags) > 0 {
		parts = append(parts, "#"+strings.Join(p.Tags, ", "))
	}
	if p.ListName != "" {
		parts = append(parts, "in "+p.ListName)
	}
	return strings.Join(parts, "  ")
}

func mustAtoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}
