package handlers

import (
	"context"
	"strings"

	"clickat/internal/feedback"
	"clickat/internal/notification"
	"clickat/internal/validation"
)

// HandleClose sets a task's status to Closed. The payload is a task id
// or a task URL, in which case the trailing path segment is the id. The
// routing prefix of an edit-view close action is stripped.
func HandleClose(c *Context, payload string) []feedback.Item {
	payload = strings.TrimPrefix(payload, argClose)
	payload = strings.TrimSpace(payload)
	if idx := strings.LastIndex(payload, "/"); idx >= 0 {
		payload = payload[idx+1:]
	}

	taskID, err := validation.ValidateID(payload, validation.KindTask)
	if err != nil {
		return []feedback.Item{configPromptItem("Invalid task ID", err.Error())}
	}

	client, err := c.apiClient()
	if err != nil {
		return []feedback.Item{configPromptItem("Invalid API key", "Set your ClickUp API key in the configuration.")}
	}

	task, err := client.CloseTask(context.Background(), taskID)
	if err != nil {
		c.Log.Debug("close failed: %v", err)
		return []feedback.Item{connectivityItem()}
	}

	c.notify(notification.EventTaskClosed, "Closed Task", task.Name)

	return []feedback.Item{{
		Title:    "Closed \"" + task.Name + "\"",
		Subtitle: "Status: " + task.Status.Status,
		Valid:    true,
		Arg:      task.URL,
	}}
}
