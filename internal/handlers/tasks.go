package handlers

import (
	"context"
	"strconv"
	"strings"
	"time"

	"clickat/internal/clickup"
	"clickat/internal/due"
	"clickat/internal/feedback"
	"clickat/internal/settings"
)

// TaskMode selects which task view an invocation renders.
type TaskMode string

const (
	ModeList   TaskMode = "list"
	ModeOpen   TaskMode = "open"
	ModeSearch TaskMode = "search"
)

// autoScopeThreshold is the merged result count below which auto scope
// widens the query to space level.
const autoScopeThreshold = 50

// HandleTasks serves the list, open and search views.
func HandleTasks(c *Context, query string, mode TaskMode) []feedback.Item {
	query = strings.TrimSpace(query)

	if mode == ModeSearch && query == "" {
		return []feedback.Item{{
			Title:    "Type to search ClickUp",
			Subtitle: "Tasks are matched by name; more entities via searchEntities.",
			Valid:    false,
		}}
	}

	if mode == ModeList && c.Settings.Get(settings.NameDefaultTag) == "" {
		return []feedback.Item{{
			Title:    "No default tag configured",
			Subtitle: "Set a default tag in the configuration before listing tasks.",
			Valid:    true,
			Arg:      argConfig,
			Icon:     feedback.IconError,
		}}
	}

	workspace := c.Settings.Get(settings.NameWorkspace)
	if workspace == "" {
		return []feedback.Item{configPromptItem("Workspace not configured", "Set your ClickUp workspace first.")}
	}

	client, err := c.apiClient()
	if err != nil {
		return []feedback.Item{configPromptItem("Invalid API key", "Set your ClickUp API key in the configuration.")}
	}

	filter := clickup.TaskFilter{OrderBy: "due_date"}
	switch mode {
	case ModeList:
		filter.Tags = []string{c.Settings.Get(settings.NameDefaultTag)}
	case ModeOpen:
		filter.DueDateLT = due.EndOfTodayMillis(c.now())
	}

	tasks, ok := c.fetchScopedTasks(client, workspace, filter)
	if !ok {
		return []feedback.Item{connectivityItem()}
	}

	if mode == ModeSearch {
		tasks = filterTasksByName(tasks, query)
	}

	var items []feedback.Item
	for _, t := range tasks {
		items = append(items, taskItem(t))
	}

	if mode == ModeSearch {
		items = append(items, c.supplementarySearch(client, workspace, query)...)
	}

	if len(items) == 0 {
		items = append(items, feedback.Item{
			Title:    "No tasks found",
			Subtitle: "Nothing matched the current filter.",
			Valid:    false,
		})
	}
	return items
}

// fetchScopedTasks applies the hierarchyLimit override, a fixed scope,
// or the progressive auto scope. The boolean is false only when no
// query level succeeded.
func (c *Context) fetchScopedTasks(client *clickup.Client, workspace string, base clickup.TaskFilter) ([]clickup.Task, bool) {
	ctx := context.Background()

	if limit := c.Settings.Get(settings.NameHierarchyLimit); limit != "" {
		f := base
		if strings.Contains(limit, "space") {
			f.SpaceIDs = idSlice(c.Settings.Get(settings.NameSpace))
		}
		if strings.Contains(limit, "folder") {
			f.ProjectIDs = idSlice(c.Settings.Get(settings.NameFolder))
		}
		if strings.Contains(limit, "list") {
			f.ListIDs = idSlice(c.Settings.Get(settings.NameList))
		}
		tasks, err := client.GetTeamTasks(ctx, workspace, f)
		if err != nil {
			c.Log.Debug("task query failed: %v", err)
			return nil, false
		}
		return tasks, true
	}

	scope := c.Settings.Get(settings.NameSearchScope)
	if scope == "" {
		scope = "auto"
	}

	if scope != "auto" {
		f := base
		switch scope {
		case "list":
			f.ListIDs = idSlice(c.Settings.Get(settings.NameList))
		case "folder":
			f.ProjectIDs = idSlice(c.Settings.Get(settings.NameFolder))
		case "space":
			f.SpaceIDs = idSlice(c.Settings.Get(settings.NameSpace))
		}
		tasks, err := client.GetTeamTasks(ctx, workspace, f)
		if err != nil {
			c.Log.Debug("task query failed: %v", err)
			return nil, false
		}
		return tasks, true
	}

	// Auto scope: list level, then folder level unconditionally, then
	// space level only while below the threshold. Levels merge by task
	// id and individual failures only shrink the result.
	var merged []clickup.Task
	seen := map[string]bool{}
	anySuccess := false

	runLevel := func(f clickup.TaskFilter) {
		tasks, err := client.GetTeamTasks(ctx, workspace, f)
		if err != nil {
			c.Log.Debug("auto-scope level failed: %v", err)
			return
		}
		anySuccess = true
		for _, t := range tasks {
			if !seen[t.ID] {
				seen[t.ID] = true
				merged = append(merged, t)
			}
		}
	}

	listFilter := base
	listFilter.ListIDs = idSlice(c.Settings.Get(settings.NameList))
	runLevel(listFilter)

	if folder := c.Settings.Get(settings.NameFolder); folder != "" {
		folderFilter := base
		folderFilter.ProjectIDs = []string{folder}
		runLevel(folderFilter)
	}

	if space := c.Settings.Get(settings.NameSpace); space != "" && len(merged) < autoScopeThreshold {
		spaceFilter := base
		spaceFilter.SpaceIDs = []string{space}
		runLevel(spaceFilter)
	}

	return merged, anySuccess
}

func idSlice(id string) []string {
	if id == "" {
		return nil
	}
	return []string{id}
}

func filterTasksByName(tasks []clickup.Task, query string) []clickup.Task {
	q := strings.ToLower(query)
	var out []clickup.Task
	for _, t := range tasks {
		if strings.Contains(strings.ToLower(t.Name), q) {
			out = append(out, t)
		}
	}
	return out
}

// taskItem maps one task to a result item with due, priority and tag
// decorations in the subtitle.
func taskItem(t clickup.Task) feedback.Item {
	var parts []string
	if t.DueDate != "" {
		if ms, err := strconv.ParseInt(t.DueDate, 10, 64); err == nil {
			parts = append(parts, "due "+due.Format(time.UnixMilli(ms)))
		}
	}
	icon := feedback.IconDefault
	if t.Priority != nil {
		parts = append(parts, "!"+titleCase(t.Priority.Priority))
		if tier, err := strconv.Atoi(t.Priority.ID); err == nil {
			icon = feedback.PriorityIcon(tier)
		}
	}
	if len(t.Tags) > 0 {
		names := make([]string, len(t.Tags))
		for i, tag := range t.Tags {
			names[i] = tag.Name
		}
		parts = append(parts, "#"+strings.Join(names, " "))
	}

	return feedback.Item{
		Title:    "[" + t.Status.Status + "] " + t.Name,
		Subtitle: strings.Join(parts, " "),
		Valid:    true,
		Arg:      t.URL,
		Icon:     icon,
	}
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// supplementarySearch widens a search across the entities enabled via
// the searchEntities setting. Every lookup is independently fault
// tolerant: a failed entity contributes nothing.
func (c *Context) supplementarySearch(client *clickup.Client, workspace, query string) []feedback.Item {
	ctx := context.Background()
	space := c.Settings.Get(settings.NameSpace)
	q := strings.ToLower(query)
	var items []feedback.Item

	matches := func(name string) bool {
		return strings.Contains(strings.ToLower(name), q)
	}

	for _, entity := range c.Settings.SearchEntities() {
		switch entity {
		case "docs":
			docs, err := client.SearchDocs(ctx, workspace, query)
			if err != nil {
				c.Log.Debug("doc search failed: %v", err)
				continue
			}
			for _, d := range docs {
				items = append(items, feedback.Item{
					Title:    "[Doc] " + d.Name,
					Subtitle: "ID: " + d.ID,
					Valid:    true,
					Arg:      d.ID,
					Icon:     feedback.IconNote,
				})
			}
		case "chats":
			channels, err := client.GetChatChannels(ctx, workspace)
			if err != nil {
				c.Log.Debug("chat search failed: %v", err)
				continue
			}
			for _, ch := range channels {
				if matches(ch.Name) {
					items = append(items, feedback.Item{
						Title:    "[Chat] " + ch.Name,
						Subtitle: "ID: " + ch.ID,
						Valid:    true,
						Arg:      ch.ID,
					})
				}
			}
		case "lists":
			if space == "" {
				continue
			}
			lists, err := client.GetSpaceLists(ctx, space)
			if err != nil {
				c.Log.Debug("list search failed: %v", err)
				continue
			}
			for _, l := range lists {
				if matches(l.Name) {
					items = append(items, feedback.Item{
						Title:    "[List] " + l.Name,
						Subtitle: "ID: " + l.ID,
						Valid:    true,
						Arg:      l.ID,
						Icon:     feedback.IconNote,
					})
				}
			}
		case "folders":
			if space == "" {
				continue
			}
			folders, err := client.GetFolders(ctx, space)
			if err != nil {
				c.Log.Debug("folder search failed: %v", err)
				continue
			}
			for _, f := range folders {
				if matches(f.Name) {
					items = append(items, feedback.Item{
						Title:    "[Folder] " + f.Name,
						Subtitle: "ID: " + f.ID,
						Valid:    true,
						Arg:      f.ID,
					})
				}
			}
		case "spaces":
			spaces, err := client.GetSpaces(ctx, workspace)
			if err != nil {
				c.Log.Debug("space search failed: %v", err)
				continue
			}
			for _, s := range spaces {
				if matches(s.Name) {
					items = append(items, feedback.Item{
						Title:    "[Space] " + s.Name,
						Subtitle: "ID: " + s.ID,
						Valid:    true,
						Arg:      s.ID,
					})
				}
			}
		}
	}
	return items
}
