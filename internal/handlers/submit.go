package handlers

import (
	"context"
	"encoding/json"
	"strconv"

	"clickat/internal/clickup"
	"clickat/internal/due"
	"clickat/internal/feedback"
	"clickat/internal/notification"
	"clickat/internal/settings"
	"clickat/internal/validation"
)

// HandleSubmit performs the task creation described by a createPayload
// JSON document produced by the suggestion pass.
func HandleSubmit(c *Context, payloadJSON string) []feedback.Item {
	var payload createPayload
	if err := json.Unmarshal([]byte(payloadJSON), &payload); err != nil {
		return []feedback.Item{{
			Title:    "Unexpected task data",
			Subtitle: err.Error(),
			Valid:    false,
			Icon:     feedback.IconWarning,
		}}
	}
	if payload.Name == "" {
		return []feedback.Item{{
			Title:    "Task name missing",
			Subtitle: "A task needs at least a name.",
			Valid:    false,
			Icon:     feedback.IconWarning,
		}}
	}

	client, err := c.apiClient()
	if err != nil {
		return []feedback.Item{configPromptItem("Invalid API key", "Set your ClickUp API key in the configuration.")}
	}

	listID := payload.ListID
	if listID == "" {
		listID = c.Settings.Get(settings.NameList)
	}
	listID, err = validation.ValidateID(listID, validation.KindList)
	if err != nil {
		return []feedback.Item{configPromptItem("Invalid list ID", "Check your list configuration.")}
	}

	c.ensureCurrentUser(client)

	req := clickup.CreateTaskRequest{
		Name:     payload.Name,
		Content:  payload.Content,
		Priority: payload.Priority,
		Tags:     payload.Tags,
	}
	if payload.Due != "" && payload.Due != "None" {
		ms, err := due.ToMillis(payload.Due)
		if err != nil {
			return []feedback.Item{{
				Title:    "Unexpected task data",
				Subtitle: err.Error(),
				Valid:    false,
				Icon:     feedback.IconWarning,
			}}
		}
		req.DueDate = ms
		req.DueDateTime = true
	}
	if userID := c.Settings.Get(settings.NameUserID); userID != "" {
		req.Assignees = []string{userID}
	}

	task, err := client.CreateTask(context.Background(), listID, req)
	if err != nil {
		c.Log.Debug("create failed: %v", err)
		return []feedback.Item{connectivityItem()}
	}

	if c.Silent {
		// The caller opens the task in a browser; the URL is the whole
		// output.
		return []feedback.Item{{
			Title: task.URL,
			Valid: true,
			Arg:   task.URL,
		}}
	}

	c.notify(notification.EventTaskCreated, "Task Created", payload.Name)

	return []feedback.Item{{
		Title:    "Created \"" + payload.Name + "\"",
		Subtitle: summarize(payload),
		Valid:    true,
		Arg:      task.URL,
	}}
}

// ensureCurrentUser fetches and persists the acting user's id on first
// use so new tasks land in their inbox. Failure is not fatal: the task
// is simply created unassigned.
func (c *Context) ensureCurrentUser(client *clickup.Client) {
	if c.Settings.Get(settings.NameUserID) != "" {
		return
	}
	user, err := client.GetAuthorizedUser(context.Background())
	if err != nil {
		c.Log.Debug("current user fetch failed: %v", err)
		return
	}
	if err := c.Settings.Set(settings.NameUserID, strconv.FormatInt(user.ID, 10)); err != nil {
		c.Log.Warn("could not persist user id: %v", err)
	}
}
