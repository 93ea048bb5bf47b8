package handlers

import (
	"context"
	"strconv"
	"strings"
	"time"

	"clickat/internal/clickup"
	"clickat/internal/due"
	"clickat/internal/feedback"
	"clickat/internal/validation"
)

// argClose routes an item's action to the close flow with the task id
// as payload.
const argClose = "cu:close "

// HandleEdit shows one task's details with its edit actions. The
// payload is a task id or a task URL, in which case the trailing path
// segment is the id.
func HandleEdit(c *Context, payload string) []feedback.Item {
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

	task, err := client.GetTask(context.Background(), taskID)
	if err != nil {
		c.Log.Debug("task fetch failed: %v", err)
		return []feedback.Item{connectivityItem()}
	}

	items := []feedback.Item{{
		Title:    "[" + task.Status.Status + "] " + task.Name,
		Subtitle: provenance(task),
		Valid:    true,
		Arg:      task.URL,
	}}

	dueText := "None"
	if ms, ok := epochMillis(task.DueDate); ok {
		dueText = due.Format(time.UnixMilli(ms))
	}
	items = append(items, feedback.Item{
		Title: "Due date: " + dueText,
		Icon:  feedback.IconNote,
	})

	priorityText := "None"
	priorityIcon := feedback.IconDefault
	if task.Priority != nil {
		priorityText = titleCase(task.Priority.Priority)
		if tier, err := strconv.Atoi(task.Priority.ID); err == nil {
			priorityIcon = feedback.PriorityIcon(tier)
		}
	}
	items = append(items, feedback.Item{
		Title:    "Priority: " + priorityText,
		Subtitle: "!1 Urgent | !2 High | !3 Normal | !4 Low",
		Icon:     priorityIcon,
	})

	if len(task.Tags) > 0 {
		names := make([]string, len(task.Tags))
		for i, tag := range task.Tags {
			names[i] = "#" + tag.Name
		}
		items = append(items, feedback.Item{
			Title: "Tags: " + strings.Join(names, " "),
			Icon:  feedback.IconLabel,
		})
	}

	if task.Description != "" {
		items = append(items, feedback.Item{
			Title:    "Description",
			Subtitle: task.Description,
			Icon:     feedback.IconNote,
		})
	}

	items = append(items,
		feedback.Item{
			Title:    "Close \"" + task.Name + "\"",
			Subtitle: "Set the status to Closed",
			Valid:    true,
			Arg:      argClose + task.ID,
		},
		feedback.Item{
			Title:    "Configuration",
			Subtitle: "Open the configuration menu",
			Valid:    true,
			Arg:      argConfig,
			Icon:     feedback.IconSettings,
		},
	)
	return items
}

// provenance renders the creation timestamp and creator for the detail
// header. Collection endpoints omit both, so either part may be absent.
func provenance(task *clickup.Task) string {
	var parts []string
	if ms, ok := epochMillis(task.DateCreated); ok {
		parts = append(parts, "Created "+due.Format(time.UnixMilli(ms)))
	}
	if task.Creator.Username != "" {
		parts = append(parts, "by "+task.Creator.Username)
	}
	return strings.Join(parts, " ")
}

func epochMillis(s string) (int64, bool) {
	if s == "" {
		return 0, false
	}
	ms, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, false
	}
	return ms, true
}
