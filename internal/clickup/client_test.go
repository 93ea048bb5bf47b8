package clickup

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"clickat/internal/validation"
)

const testAPIKey = "pk_1234567890_ABCDEF"

func newTestClient(t *testing.T, handler http.Handler) (*Client, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := New(Config{
		APIKey:    testAPIKey,
		BaseURL:   server.URL,
		BaseURLV3: server.URL + "/v3",
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return client, server
}

func TestNewRejectsInvalidAPIKey(t *testing.T) {
	if _, err := New(Config{APIKey: "short"}); err == nil {
		t.Fatal("expected error for short API key")
	}
	if _, err := New(Config{APIKey: ""}); err == nil {
		t.Fatal("expected error for empty API key")
	}
}

func TestGetAuthorizedUser(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/user" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != testAPIKey {
			t.Errorf("Authorization = %q, want raw API key", got)
		}
		_, _ = w.Write([]byte(`{"user":{"id":42,"username":"casey","email":"casey@example.com"}}`))
	}))

	user, err := client.GetAuthorizedUser(context.Background())
	if err != nil {
		t.Fatalf("GetAuthorizedUser: %v", err)
	}
	if user.ID != 42 || user.Username != "casey" {
		t.Errorf("unexpected user %+v", user)
	}
}

func TestGetTaskValidatesID(t *testing.T) {
	called := false
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))

	if _, err := client.GetTask(context.Background(), "../etc/passwd"); err == nil {
		t.Fatal("expected validation error")
	}
	if called {
		t.Error("malformed id must not reach the network")
	}
}

func TestCloseTask(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPut {
			t.Errorf("method = %s, want PUT", r.Method)
		}
		if r.URL.Path != "/task/8xdfdjbgd" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		var body map[string]string
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Fatalf("decode body: %v", err)
		}
		if body["status"] != "Closed" {
			t.Errorf("status = %q, want Closed", body["status"])
		}
		_, _ = w.Write([]byte(`{"id":"8xdfdjbgd","name":"Ship release","status":{"status":"Closed"}}`))
	}))

	task, err := client.CloseTask(context.Background(), "8xdfdjbgd")
	if err != nil {
		t.Fatalf("CloseTask: %v", err)
	}
	if task.Name != "Ship release" || task.Status.Status != "Closed" {
		t.Errorf("unexpected task %+v", task)
	}
}

func TestCreateTaskSendsNullPriority(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/list/901100123456/task" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		var body map[string]json.RawMessage
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Fatalf("decode body: %v", err)
		}
		if string(body["priority"]) != "null" {
			t.Errorf("priority = %s, want null", body["priority"])
		}
		_, _ = w.Write([]byte(`{"id":"abc123de","name":"New task","url":"https://app.clickup.com/t/abc123de"}`))
	}))

	task, err := client.CreateTask(context.Background(), "901100123456", CreateTaskRequest{
		Name: "New task",
		Tags: []string{"later"},
	})
	if err != nil {
		t.Fatalf("CreateTask: %v", err)
	}
	if task.URL == "" {
		t.Error("expected task URL in response")
	}
}

func TestGetTeamTasksFilterParams(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if got := q["list_ids[]"]; len(got) != 1 || got[0] != "901100123456" {
			t.Errorf("list_ids[] = %v", got)
		}
		if got := q["tags[]"]; len(got) != 1 || got[0] != "alfred" {
			t.Errorf("tags[] = %v", got)
		}
		if q.Get("due_date_lt") != "1767225599000" {
			t.Errorf("due_date_lt = %s", q.Get("due_date_lt"))
		}
		if q.Get("order_by") != "due_date" {
			t.Errorf("order_by = %s", q.Get("order_by"))
		}
		_, _ = w.Write([]byte(`{"tasks":[{"id":"abc123de","name":"One"},{"id":"fgh456ij","name":"Two"}]}`))
	}))

	tasks, err := client.GetTeamTasks(context.Background(), "12345678", TaskFilter{
		ListIDs:   []string{"901100123456"},
		Tags:      []string{"alfred"},
		DueDateLT: 1767225599000,
		OrderBy:   "due_date",
	})
	if err != nil {
		t.Fatalf("GetTeamTasks: %v", err)
	}
	if len(tasks) != 2 {
		t.Fatalf("got %d tasks, want 2", len(tasks))
	}
}

func TestGetTeamTasksEmptyObject(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	}))

	tasks, err := client.GetTeamTasks(context.Background(), "12345678", TaskFilter{})
	if err != nil {
		t.Fatalf("GetTeamTasks: %v", err)
	}
	if len(tasks) != 0 {
		t.Errorf("got %d tasks, want 0", len(tasks))
	}
}

func TestAPIErrorDecoding(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"err":"Oauth token not found","ECODE":"OAUTH_019"}`))
	}))

	_, err := client.GetTeams(context.Background())
	if err == nil {
		t.Fatal("expected error")
	}
	apiErr, ok := err.(*APIError)
	if !ok {
		t.Fatalf("error type %T, want *APIError", err)
	}
	if apiErr.StatusCode != http.StatusUnauthorized {
		t.Errorf("status = %d", apiErr.StatusCode)
	}
	if apiErr.ECode != ECodeInvalidKey {
		t.Errorf("ECODE = %s", apiErr.ECode)
	}
	if !apiErr.IsAuthError() {
		t.Error("OAUTH_019 must classify as auth error")
	}
}

func TestAPIErrorNonAuth(t *testing.T) {
	err := &APIError{StatusCode: 500, Message: "internal", ECode: "SERVER_001"}
	if err.IsAuthError() {
		t.Error("SERVER_001 must not classify as auth error")
	}
}

func TestGetSpacesAndFoldersAndLists(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/team/12345678/space":
			_, _ = w.Write([]byte(`{"spaces":[{"id":"790","name":"Engineering"}]}`))
		case "/space/790/folder":
			_, _ = w.Write([]byte(`{"folders":[{"id":"457","name":"Sprints","lists":[{"id":"124","name":"Sprint 1"}]}]}`))
		case "/space/790/list":
			_, _ = w.Write([]byte(`{"lists":[{"id":"125","name":"Backlog","task_count":7}]}`))
		case "/folder/457/list":
			_, _ = w.Write([]byte(`{"lists":[{"id":"124","name":"Sprint 1"}]}`))
		case "/space/790/tag":
			_, _ = w.Write([]byte(`{"tags":[{"name":"urgent"},{"name":"later"}]}`))
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
			http.NotFound(w, r)
		}
	}))

	ctx := context.Background()

	spaces, err := client.GetSpaces(ctx, "12345678")
	if err != nil || len(spaces) != 1 || spaces[0].Name != "Engineering" {
		t.Fatalf("GetSpaces = %v, %v", spaces, err)
	}
	folders, err := client.GetFolders(ctx, "790")
	if err != nil || len(folders) != 1 || len(folders[0].Lists) != 1 {
		t.Fatalf("GetFolders = %v, %v", folders, err)
	}
	lists, err := client.GetSpaceLists(ctx, "790")
	if err != nil || len(lists) != 1 || lists[0].TaskCount != 7 {
		t.Fatalf("GetSpaceLists = %v, %v", lists, err)
	}
	folderLists, err := client.GetFolderLists(ctx, "457")
	if err != nil || len(folderLists) != 1 {
		t.Fatalf("GetFolderLists = %v, %v", folderLists, err)
	}
	tags, err := client.GetSpaceTags(ctx, "790")
	if err != nil || len(tags) != 2 {
		t.Fatalf("GetSpaceTags = %v, %v", tags, err)
	}
}

func TestDocsAndChatChannels(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/v3/workspaces/12345678/docs":
			if r.URL.Query().Get("query") != "roadmap" {
				t.Errorf("query = %s", r.URL.Query().Get("query"))
			}
			_, _ = w.Write([]byte(`{"docs":[{"id":"doc1","name":"Roadmap 2026"}]}`))
		case "/v3/workspaces/12345678/chat/channels":
			_, _ = w.Write([]byte(`{"data":[{"id":"ch1","name":"general"}]}`))
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
			http.NotFound(w, r)
		}
	}))

	ctx := context.Background()

	docs, err := client.SearchDocs(ctx, "12345678", "roadmap")
	if err != nil || len(docs) != 1 || docs[0].Name != "Roadmap 2026" {
		t.Fatalf("SearchDocs = %v, %v", docs, err)
	}
	channels, err := client.GetChatChannels(ctx, "12345678")
	if err != nil || len(channels) != 1 {
		t.Fatalf("GetChatChannels = %v, %v", channels, err)
	}
}

func TestCheckID(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/team/12345678":
			_, _ = w.Write([]byte(`{"team":{"id":"12345678","name":"Acme"}}`))
		case "/space/790":
			_, _ = w.Write([]byte(`{"id":"790","name":"Engineering"}`))
		case "/list/999":
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"err":"Team not authorized","ECODE":"OAUTH_027"}`))
		default:
			http.NotFound(w, r)
		}
	}))

	ctx := context.Background()

	if !client.CheckID(ctx, validation.KindWorkspace, "12345678") {
		t.Error("workspace id should verify")
	}
	if !client.CheckID(ctx, validation.KindSpace, "790") {
		t.Error("space id should verify")
	}
	if client.CheckID(ctx, validation.KindList, "999") {
		t.Error("unauthorized list id must not verify")
	}
	if client.CheckID(ctx, validation.KindSpace, "404404") {
		t.Error("unknown id must not verify")
	}
}
