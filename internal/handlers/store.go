package handlers

import (
	"strings"

	"clickat/internal/feedback"
	"clickat/internal/notification"
	"clickat/internal/settings"
	"clickat/internal/utils"
)

// friendlyNames maps setting names to the labels notifications and
// confirmation items use.
var friendlyNames = map[string]string{
	settings.NameAPIKey:         "API key",
	settings.NameDueDate:        "Default due date",
	settings.NameList:           "Default list",
	settings.NameSpace:          "Space",
	settings.NameWorkspace:      "Workspace",
	settings.NameFolder:         "Folder",
	settings.NameNotification:   "Notifications",
	settings.NameDefaultTag:     "Default tag",
	settings.NameUserID:         "User ID",
	settings.NameSearchScope:    "Search scope",
	settings.NameSearchEntities: "Search entities",
	settings.NameHierarchyLimit: "Hierarchy limit",
}

// HandleStore persists a configuration value. The payload is the arg a
// configuration item produced: "<name> <value>", "cache", or
// "searchEntities toggle:<entity>", optionally still carrying the
// routing prefix.
func HandleStore(c *Context, payload string) []feedback.Item {
	payload = strings.TrimPrefix(payload, argConfig)
	payload = strings.TrimSpace(payload)

	if payload == "cache" {
		return c.storeClearCache()
	}

	name, value, _ := strings.Cut(payload, " ")
	value = strings.TrimSpace(value)

	if name == settings.NameSearchEntities && strings.HasPrefix(value, "toggle:") {
		return c.storeToggleEntity(strings.TrimPrefix(value, "toggle:"))
	}

	// The folder sub-search offers "none" to drop the folder scope.
	if name == settings.NameFolder && value == "none" {
		value = ""
	}

	if err := c.Settings.Set(name, value); err != nil {
		return []feedback.Item{{
			Title:    "Could not save setting",
			Subtitle: err.Error(),
			Valid:    false,
			Icon:     feedback.IconError,
		}}
	}

	label := friendlyNames[name]
	if label == "" {
		label = name
	}

	if value == "" && name != settings.NameNotification {
		c.notify(notification.EventSettingSaved, "Setting Cleared", label+" has been removed")
		return []feedback.Item{{
			Title:    label + " cleared",
			Subtitle: "The setting has been removed.",
			Valid:    true,
			Arg:      argConfig,
			Icon:     feedback.IconSettings,
		}}
	}

	c.notify(notification.EventSettingSaved, "Setting Saved", label+" has been updated")
	return []feedback.Item{{
		Title:    label + " saved",
		Subtitle: "Value: " + c.displayValue(name),
		Valid:    true,
		Arg:      argConfig,
		Icon:     feedback.IconSettings,
	}}
}

// displayValue renders the stored value, masked for the secret.
func (c *Context) displayValue(name string) string {
	value := c.Settings.Get(name)
	if name == settings.NameAPIKey {
		return utils.MaskAPIKey(value)
	}
	return value
}

// storeClearCache drops exactly the enumeration caches; settings stay
// untouched.
func (c *Context) storeClearCache() []feedback.Item {
	if c.Cache != nil {
		if err := c.Cache.ClearEnumerations(); err != nil {
			return []feedback.Item{{
				Title:    "Could not clear cache",
				Subtitle: err.Error(),
				Valid:    false,
				Icon:     feedback.IconError,
			}}
		}
	}
	c.notify(notification.EventCacheCleared, "Cleared Cache", "Lists and labels will be retrieved from ClickUp again.")
	return []feedback.Item{{
		Title:    "Cache cleared",
		Subtitle: "Lists and labels will be retrieved again.",
		Valid:    true,
		Arg:      argConfig,
		Icon:     feedback.IconSettings,
	}}
}

// storeToggleEntity flips one optional search entity while keeping
// "tasks" always present.
func (c *Context) storeToggleEntity(entity string) []feedback.Item {
	valid := map[string]bool{"docs": true, "chats": true, "lists": true, "folders": true, "spaces": true}
	if !valid[entity] {
		return []feedback.Item{{
			Title:    "Cannot toggle " + entity,
			Subtitle: "Unknown search entity.",
			Valid:    false,
			Icon:     feedback.IconWarning,
		}}
	}

	current := c.Settings.SearchEntities()
	var next []string
	removed := false
	for _, e := range current {
		if e == entity {
			removed = true
			continue
		}
		next = append(next, e)
	}
	if !removed {
		next = append(next, entity)
	}
	action := "Enabled"
	if removed {
		action = "Disabled"
	}

	value := strings.Join(next, ",")
	if err := c.Settings.Set(settings.NameSearchEntities, value); err != nil {
		return []feedback.Item{{
			Title:    "Could not save setting",
			Subtitle: err.Error(),
			Valid:    false,
			Icon:     feedback.IconError,
		}}
	}

	c.notify(notification.EventSettingSaved, action+" "+entity, "Search entities: "+strings.Join(c.Settings.SearchEntities(), ","))
	return []feedback.Item{{
		Title:        action + " " + entity,
		Subtitle:     "Search entities: " + strings.Join(c.Settings.SearchEntities(), ","),
		Valid:        false,
		Autocomplete: settings.NameSearchEntities + " ",
		Icon:         feedback.IconSettings,
	}}
}
