package handlers

import (
	"context"
	"strconv"
	"strings"

	"clickat/internal/cache"
	"clickat/internal/clickup"
	"clickat/internal/due"
	"clickat/internal/feedback"
	"clickat/internal/settings"
	"clickat/internal/utils"
	"clickat/internal/validation"
)

const (
	checkPass = "ok"
	checkFail = "FAILED"
)

// ConfigDispatcher builds the setting-name command table. Declaration
// order is the match order; no name may be a prefix of a later one.
func ConfigDispatcher() *Dispatcher {
	d := NewDispatcher(configMenu, nil)
	d.Register(settings.NameAPIKey, configAPIKey)
	d.Register(settings.NameDueDate, configDueDate)
	d.Register(settings.NameWorkspace, configWorkspace)
	d.Register(settings.NameSpace, configSpace)
	d.Register(settings.NameFolder, configFolder)
	d.Register(settings.NameList, configList)
	d.Register(settings.NameNotification, configNotification)
	d.Register(settings.NameDefaultTag, configDefaultTag)
	d.Register(settings.NameSearchScope, configSearchScope)
	d.Register(settings.NameSearchEntities, configSearchEntities)
	d.Register("validate", configValidate)
	return d
}

// HandleConfig serves the configuration menu and its sub-flows. A query
// matching no setting name falls through silently.
func HandleConfig(c *Context, query string) []feedback.Item {
	return ConfigDispatcher().Dispatch(c, query)
}

// configMenu lists every setting with its current value. Required
// fields without a value are marked with an asterisk and the error
// icon.
func configMenu(c *Context, _ string) []feedback.Item {
	get := c.Settings.Get

	menuEntry := func(name, label, subtitle, display string, required bool) feedback.Item {
		title := label
		if display != "" {
			title += " (" + display + ")"
		}
		icon := ""
		if required {
			icon = feedback.IconDefault
			if display == "" {
				title = "*" + title
				icon = feedback.IconError
			}
		}
		return feedback.Item{
			Title:        title,
			Subtitle:     subtitle,
			Valid:        false,
			Autocomplete: name + " ",
			Icon:         icon,
		}
	}

	notificationDisplay := ""
	switch get(settings.NameNotification) {
	case "true":
		notificationDisplay = "on"
	case "false":
		notificationDisplay = "off"
	}

	scope := get(settings.NameSearchScope)
	if scope == "" {
		scope = "auto"
	}
	scopeDisplay := map[string]string{
		"list":   "Performance",
		"folder": "Balanced",
		"space":  "Comprehensive",
		"auto":   "Auto",
	}[scope]
	if scopeDisplay == "" {
		scopeDisplay = scope
	}

	items := []feedback.Item{
		menuEntry(settings.NameAPIKey, "Set API key", "Your personal ClickUp API token. (Required)", utils.MaskAPIKey(get(settings.NameAPIKey)), true),
		menuEntry(settings.NameDueDate, "Set default due date", "e.g. m30 (in 30 minutes), h2, d1, w1.", get(settings.NameDueDate), false),
		menuEntry(settings.NameWorkspace, "Set ClickUp workspace", "Workspace whose tasks can be searched. (Required)", get(settings.NameWorkspace), true),
		menuEntry(settings.NameSpace, "Set ClickUp space", "Space that defines your labels and priorities. (Required)", get(settings.NameSpace), true),
		menuEntry(settings.NameFolder, "Set ClickUp folder", "Optional folder to scope searches to.", get(settings.NameFolder), false),
		menuEntry(settings.NameList, "Set default ClickUp list", "List new tasks go to by default. (Required)", get(settings.NameList), true),
		menuEntry(settings.NameNotification, "Set notifications", "Show a notification after creating a task?", notificationDisplay, false),
		menuEntry(settings.NameDefaultTag, "Set default tag", "Tag added to every new task.", get(settings.NameDefaultTag), false),
		menuEntry(settings.NameSearchScope, "Set search scope", "Performance (list), Balanced (folder), Comprehensive (space), or Auto.", scopeDisplay, false),
		menuEntry(settings.NameSearchEntities, "Set search entities", "Which entity types a search covers.", strings.Join(c.Settings.SearchEntities(), ","), false),
		{
			Title:        "Validate configuration",
			Subtitle:     "Check the stored IDs against ClickUp.",
			Valid:        false,
			Autocomplete: "validate",
			Icon:         feedback.IconSettings,
		},
		{
			Title:     "Clear cache",
			Subtitle:  "Labels, lists, spaces, folders and workspaces will be fetched again.",
			Valid:     true,
			Arg:       argConfig + "cache",
			Icon:      feedback.IconSettings,
			Variables: map[string]string{"isSubmitted": "true"},
		},
	}
	return items
}

func confirmItem(title string, query string) feedback.Item {
	return feedback.Item{
		Title:     title,
		Subtitle:  "Save?",
		Valid:     true,
		Arg:       argConfig + query,
		Variables: map[string]string{"isSubmitted": "true"},
	}
}

func configAPIKey(c *Context, input string) []feedback.Item {
	return []feedback.Item{{
		Title:     "Enter API key: " + input,
		Subtitle:  "Confirm to save to the keychain.",
		Valid:     true,
		Arg:       argConfig + settings.NameAPIKey + " " + input,
		Variables: map[string]string{"isSubmitted": "true"},
	}}
}

func configDueDate(c *Context, input string) []feedback.Item {
	preview, ok := due.DescribeShorthand(strings.TrimSpace(input))
	if !ok {
		preview = "(Invalid input)"
	}
	return []feedback.Item{confirmItem("Default due date (e.g. d2): "+preview, settings.NameDueDate+" "+input)}
}

func configDefaultTag(c *Context, input string) []feedback.Item {
	value := strings.ToLower(strings.TrimSpace(input))
	if strings.Contains(value, ",") {
		value = "(Invalid input)"
	}
	return []feedback.Item{confirmItem("Default tag: "+value, settings.NameDefaultTag+" "+input)}
}

func configNotification(c *Context, input string) []feedback.Item {
	input = strings.TrimSpace(input)

	options := []feedback.Item{
		{
			Title:     "Enable notifications",
			Subtitle:  "Show a notification after creating tasks.",
			Valid:     true,
			Arg:       argConfig + settings.NameNotification + " true",
			Variables: map[string]string{"isSubmitted": "true"},
		},
		{
			Title:     "Disable notifications",
			Subtitle:  "No notification after creating tasks.",
			Valid:     true,
			Arg:       argConfig + settings.NameNotification + " false",
			Variables: map[string]string{"isSubmitted": "true"},
		},
	}

	switch input {
	case "":
		return options
	case "true", "false":
		return []feedback.Item{confirmItem("Set notifications to: "+input, settings.NameNotification+" "+input)}
	default:
		return append([]feedback.Item{{
			Title:    "Invalid input: " + input,
			Subtitle: "Pick one of the options below.",
			Valid:    false,
		}}, options...)
	}
}

func configSearchScope(c *Context, input string) []feedback.Item {
	input = strings.TrimSpace(input)

	choices := []struct {
		value string
		title string
		sub   string
	}{
		{"list", "Performance mode (list only)", "Search only your default list. Fastest."},
		{"folder", "Balanced mode (folder)", "Search your entire folder."},
		{"space", "Comprehensive mode (space)", "Search your entire space. Slowest."},
		{"auto", "Auto", "Widen the search based on result count."},
	}

	var options []feedback.Item
	valid := false
	for _, choice := range choices {
		if choice.value == input {
			valid = true
		}
		options = append(options, feedback.Item{
			Title:     choice.title,
			Subtitle:  choice.sub,
			Valid:     true,
			Arg:       argConfig + settings.NameSearchScope + " " + choice.value,
			Variables: map[string]string{"isSubmitted": "true"},
		})
	}

	switch {
	case input == "":
		return options
	case valid:
		return []feedback.Item{confirmItem("Set search scope to: "+input, settings.NameSearchScope+" "+input)}
	default:
		return append([]feedback.Item{{
			Title:    "Invalid input: " + input,
			Subtitle: "Pick one of the options below.",
			Valid:    false,
		}}, options...)
	}
}

// configSearchEntities lists each optional entity with its current
// state; choosing one toggles it.
func configSearchEntities(c *Context, _ string) []feedback.Item {
	enabled := map[string]bool{}
	for _, e := range c.Settings.SearchEntities() {
		enabled[e] = true
	}

	entities := []struct {
		value string
		label string
	}{
		{"docs", "Documents"},
		{"chats", "Chat channels"},
		{"lists", "Lists"},
		{"folders", "Folders"},
		{"spaces", "Spaces"},
	}

	items := []feedback.Item{{
		Title:    "Tasks (always searched)",
		Subtitle: "Task search cannot be disabled.",
		Valid:    false,
	}}
	for _, e := range entities {
		state := "off"
		if enabled[e.value] {
			state = "on"
		}
		items = append(items, feedback.Item{
			Title:     e.label + ": " + state,
			Subtitle:  "Choose to toggle.",
			Valid:     true,
			Arg:       argConfig + settings.NameSearchEntities + " toggle:" + e.value,
			Variables: map[string]string{"isSubmitted": "true"},
		})
	}
	return items
}

// enumeration is a name/id pair from one of the hierarchy lookups.
type enumeration struct {
	Name     string
	ID       string
	Subtitle string
}

// subSearch renders a live sub-search over an enumeration: name
// filtering, a literal-id fallback for numeric input, and a
// no-results hint.
func subSearch(settingName, noun, input string, entries []enumeration) []feedback.Item {
	input = strings.TrimSpace(input)
	var items []feedback.Item
	for _, e := range entries {
		if input != "" && !strings.Contains(strings.ToLower(e.Name), strings.ToLower(input)) {
			continue
		}
		sub := e.Subtitle
		if sub == "" {
			sub = "ID: " + e.ID
		}
		items = append(items, feedback.Item{
			Title:     e.Name,
			Subtitle:  sub,
			Valid:     true,
			Arg:       argConfig + settingName + " " + e.ID,
			Variables: map[string]string{"isSubmitted": "true"},
		})
	}
	if len(items) > 0 {
		return items
	}

	if input != "" && isNumeric(input) {
		return []feedback.Item{{
			Title:     "Use " + noun + " ID: " + input,
			Subtitle:  "Save this ID directly.",
			Valid:     true,
			Arg:       argConfig + settingName + " " + input,
			Variables: map[string]string{"isSubmitted": "true"},
		}}
	}
	return []feedback.Item{{
		Title:    "No " + noun + "s found",
		Subtitle: "Type to search or enter a numeric ID.",
		Valid:    false,
	}}
}

func isNumeric(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func configWorkspace(c *Context, input string) []feedback.Item {
	client, err := c.apiClient()
	if err != nil {
		return []feedback.Item{configPromptItem("API key not set", "Set your API key first.")}
	}

	var teams []clickup.Team
	hit := false
	if c.Cache != nil {
		hit, _ = c.Cache.Get(cache.KeyWorkspaces, cache.DefaultMaxAge, &teams)
	}
	if !hit {
		teams, err = client.GetTeams(context.Background())
		if err != nil {
			c.Log.Debug("workspace fetch failed: %v", err)
			return []feedback.Item{connectivityItem()}
		}
		if c.Cache != nil {
			_ = c.Cache.Put(cache.KeyWorkspaces, teams)
		}
	}

	entries := make([]enumeration, len(teams))
	for i, t := range teams {
		entries[i] = enumeration{Name: t.Name, ID: t.ID}
	}
	return subSearch(settings.NameWorkspace, "workspace", input, entries)
}

func configSpace(c *Context, input string) []feedback.Item {
	workspace := c.Settings.Get(settings.NameWorkspace)
	if workspace == "" {
		return []feedback.Item{configPromptItem("Workspace not set", "Set your workspace first.")}
	}
	client, err := c.apiClient()
	if err != nil {
		return []feedback.Item{configPromptItem("API key not set", "Set your API key first.")}
	}

	var spaces []clickup.Space
	key := cache.PrefixSpaces + workspace
	hit := false
	if c.Cache != nil {
		hit, _ = c.Cache.Get(key, cache.DefaultMaxAge, &spaces)
	}
	if !hit {
		spaces, err = client.GetSpaces(context.Background(), workspace)
		if err != nil {
			c.Log.Debug("space fetch failed: %v", err)
			return []feedback.Item{connectivityItem()}
		}
		if c.Cache != nil {
			_ = c.Cache.Put(key, spaces)
		}
	}

	entries := make([]enumeration, len(spaces))
	for i, s := range spaces {
		entries[i] = enumeration{Name: s.Name, ID: s.ID}
	}
	return subSearch(settings.NameSpace, "space", input, entries)
}

func configFolder(c *Context, input string) []feedback.Item {
	space := c.Settings.Get(settings.NameSpace)
	if space == "" {
		return []feedback.Item{configPromptItem("Space not set", "Set your space first.")}
	}
	client, err := c.apiClient()
	if err != nil {
		return []feedback.Item{configPromptItem("API key not set", "Set your API key first.")}
	}

	var folders []clickup.Folder
	key := cache.PrefixFolders + space
	hit := false
	if c.Cache != nil {
		hit, _ = c.Cache.Get(key, cache.DefaultMaxAge, &folders)
	}
	if !hit {
		folders, err = client.GetFolders(context.Background(), space)
		if err != nil {
			c.Log.Debug("folder fetch failed: %v", err)
			return []feedback.Item{connectivityItem()}
		}
		if c.Cache != nil {
			_ = c.Cache.Put(key, folders)
		}
	}

	items := []feedback.Item{{
		Title:     "No folder (use space directly)",
		Subtitle:  "Searches will not be scoped to a folder.",
		Valid:     true,
		Arg:       argConfig + settings.NameFolder + " none",
		Variables: map[string]string{"isSubmitted": "true"},
	}}

	entries := make([]enumeration, len(folders))
	for i, f := range folders {
		entries[i] = enumeration{Name: f.Name, ID: f.ID, Subtitle: "ID: " + f.ID}
	}
	return append(items, subSearch(settings.NameFolder, "folder", input, entries)...)
}

func configList(c *Context, input string) []feedback.Item {
	if c.Settings.Get(settings.NameSpace) == "" {
		return []feedback.Item{configPromptItem("Space not set", "Set your space first.")}
	}
	if _, err := c.apiClient(); err != nil {
		return []feedback.Item{configPromptItem("API key not set", "Set your API key first.")}
	}

	lists, err := c.cachedLists()
	if err != nil {
		c.Log.Debug("list fetch failed: %v", err)
		return []feedback.Item{connectivityItem()}
	}

	entries := make([]enumeration, len(lists))
	for i, l := range lists {
		entries[i] = enumeration{Name: l.Name, ID: l.ID, Subtitle: "ID: " + l.ID + " - " + strconv.Itoa(l.TaskCount) + " tasks"}
	}
	return subSearch(settings.NameList, "list", input, entries)
}

// configValidate checks every stored id against the provider.
func configValidate(c *Context, _ string) []feedback.Item {
	client, err := c.apiClient()
	if err != nil {
		return []feedback.Item{configPromptItem("API key not set", "Set your API key first.")}
	}
	ctx := context.Background()

	check := func(label string, kind validation.Kind, settingName string) feedback.Item {
		id := c.Settings.Get(settingName)
		state := checkFail
		if id != "" && client.CheckID(ctx, kind, id) {
			state = checkPass
		}
		return feedback.Item{
			Title: "Checking " + label + ": " + state,
			Valid: true,
			Arg:   argConfig,
		}
	}

	items := []feedback.Item{
		check("list ID", validation.KindList, settings.NameList),
		check("space ID", validation.KindSpace, settings.NameSpace),
		check("workspace ID", validation.KindWorkspace, settings.NameWorkspace),
	}
	if c.Settings.Get(settings.NameFolder) != "" {
		items = append(items, check("folder ID", validation.KindFolder, settings.NameFolder))
	}
	return items
}
