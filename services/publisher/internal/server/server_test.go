package server

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"

	"estatecast/internal/servicetoken"
	"estatecast/pkg/domain"
	"estatecast/pkg/graph"
	"estatecast/pkg/store"
	"estatecast/services/publisher/internal/app"
)

const (
	testSealKey        = "000102030405060708090a0b0c0d0e0f101112131415161718191a1b1c1d1e1f"
	testInternalSecret = "0123456789abcdef0123456789abcdef"
)

type mediaGenRequest struct {
	Prompt      string `json:"prompt"`
	Platform    string `json:"platform"`
	ContentType string `json:"contentType"`
}

type testEnv struct {
	srv         *httptest.Server
	app         *app.App
	redis       *miniredis.Miniredis
	stopWorkers context.CancelFunc
	feedForms   chan url.Values
	igMedia     chan url.Values
	igPublish   chan url.Values
	mediaReqs   chan mediaGenRequest
}

// newTestEnv wires the full publisher against a fake Graph API, an optional
// fake media service (0 disables it, otherwise the status it responds with),
// and miniredis for the state store and publish queue.
func newTestEnv(t *testing.T, mediaStatus int, feedFails bool) *testEnv {
	t.Helper()
	redisSrv := miniredis.RunT(t)

	feedForms := make(chan url.Values, 16)
	igMedia := make(chan url.Values, 16)
	igPublish := make(chan url.Values, 16)
	graphSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch {
		case r.Method == http.MethodGet && r.URL.Path == "/oauth/access_token":
			io.WriteString(w, `{"access_token":"user-token-1","token_type":"bearer","expires_in":5184000}`)
		case r.Method == http.MethodGet && r.URL.Path == "/me/accounts":
			io.WriteString(w, `{"data":[{"id":"page-1","name":"Windsor Homes","access_token":"page-token-1"}]}`)
		case r.Method == http.MethodGet && r.URL.Path == "/page-1":
			io.WriteString(w, `{"instagram_business_account":{"id":"ig-1"}}`)
		case r.Method == http.MethodGet && r.URL.Path == "/ig-1":
			io.WriteString(w, `{"id":"ig-1","username":"windsorhomes"}`)
		case r.Method == http.MethodPost && r.URL.Path == "/page-1/feed":
			_ = r.ParseForm()
			feedForms <- r.PostForm
			if feedFails {
				w.WriteHeader(http.StatusBadRequest)
				io.WriteString(w, `{"error":{"message":"Invalid OAuth access token.","type":"OAuthException","code":190}}`)
				return
			}
			io.WriteString(w, `{"id":"page-1_99"}`)
		case r.Method == http.MethodPost && r.URL.Path == "/ig-1/media":
			_ = r.ParseForm()
			igMedia <- r.PostForm
			io.WriteString(w, `{"id":"container-7"}`)
		case r.Method == http.MethodPost && r.URL.Path == "/ig-1/media_publish":
			_ = r.ParseForm()
			igPublish <- r.PostForm
			io.WriteString(w, `{"id":"ig-post-55"}`)
		default:
			w.WriteHeader(http.StatusNotFound)
			io.WriteString(w, `{"error":{"message":"unknown path"}}`)
		}
	}))
	t.Cleanup(graphSrv.Close)

	mediaReqs := make(chan mediaGenRequest, 16)
	mediaURL := ""
	if mediaStatus != 0 {
		verifier, err := servicetoken.NewVerifierWithOptions(servicetoken.VerifierOptions{
			Secret:         testInternalSecret,
			Audience:       "media",
			AllowedIssuers: []string{"publisher"},
		})
		if err != nil {
			t.Fatalf("new verifier: %v", err)
		}
		mediaSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost || r.URL.Path != "/internal/images/generate" {
				http.NotFound(w, r)
				return
			}
			token, ok := servicetoken.BearerToken(r)
			if !ok {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			if _, err := verifier.Verify(token); err != nil {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			var req mediaGenRequest
			_ = json.NewDecoder(r.Body).Decode(&req)
			mediaReqs <- req
			w.Header().Set("Content-Type", "application/json")
			if mediaStatus != http.StatusCreated {
				w.WriteHeader(mediaStatus)
				io.WriteString(w, `{"error":"provider unavailable","code":"SYSTEM_INTERNAL_ERROR"}`)
				return
			}
			w.WriteHeader(http.StatusCreated)
			io.WriteString(w, `{"id":"gen-1","status":"completed","imagePath":"/generated_images/img-1.png"}`)
		}))
		t.Cleanup(mediaSrv.Close)
		mediaURL = mediaSrv.URL
	}

	graphClient := graph.New(graph.Config{
		AppID:     "app-1",
		AppSecret: "app-secret-1",
		BaseURL:   graphSrv.URL,
		DialogURL: graphSrv.URL + "/dialog/oauth",
	})
	appCore, err := app.New(app.Config{
		Store:               store.NewMemoryStore(),
		Graph:               graphClient,
		FacebookRedirectURL: "https://app.example/auth/facebook/callback",
		TokenSealKey:        testSealKey,
		MediaURL:            mediaURL,
		InternalTokenSecret: testInternalSecret,
		PublicBaseURL:       "https://media.example",
		RedisAddr:           redisSrv.Addr(),
		QueueMaxRetries:     1,
		PublishConcurrency:  1,
	})
	if err != nil {
		t.Fatalf("new app: %v", err)
	}
	workerCtx, stopWorkers := context.WithCancel(context.Background())
	t.Cleanup(stopWorkers)
	appCore.StartWorkers(workerCtx)
	s, err := New(Config{App: appCore})
	if err != nil {
		t.Fatalf("new publisher server: %v", err)
	}
	srv := httptest.NewServer(s.Router())
	t.Cleanup(srv.Close)
	return &testEnv{
		srv:         srv,
		app:         appCore,
		redis:       redisSrv,
		stopWorkers: stopWorkers,
		feedForms:   feedForms,
		igMedia:     igMedia,
		igPublish:   igPublish,
		mediaReqs:   mediaReqs,
	}
}

func postJSON(t *testing.T, url, body string) (*http.Response, []byte) {
	t.Helper()
	resp, err := http.Post(url, "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatalf("post %s: %v", url, err)
	}
	data, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return resp, data
}

func getJSON(t *testing.T, url string) (*http.Response, []byte) {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("get %s: %v", url, err)
	}
	data, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return resp, data
}

func doRequest(t *testing.T, method, url string) (*http.Response, []byte) {
	t.Helper()
	req, err := http.NewRequest(method, url, nil)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	data, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return resp, data
}

func decodeAccount(t *testing.T, data []byte) domain.Account {
	t.Helper()
	var account domain.Account
	if err := json.Unmarshal(data, &account); err != nil {
		t.Fatalf("decode account: %v", err)
	}
	return account
}

func decodePost(t *testing.T, data []byte) domain.Post {
	t.Helper()
	var post domain.Post
	if err := json.Unmarshal(data, &post); err != nil {
		t.Fatalf("decode post: %v", err)
	}
	return post
}

func decodeError(t *testing.T, data []byte) errorResponse {
	t.Helper()
	var er errorResponse
	if err := json.Unmarshal(data, &er); err != nil {
		t.Fatalf("decode error response: %v", err)
	}
	return er
}

func connectAccount(t *testing.T, env *testEnv, platform, accountID, name string) domain.Account {
	t.Helper()
	body := fmt.Sprintf(`{"userId":"default_user","platform":%q,"accountId":%q,"accountName":%q,"accessToken":"page-token-1"}`,
		platform, accountID, name)
	resp, data := postJSON(t, env.srv.URL+"/api/accounts", body)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("connect account status = %d: %s", resp.StatusCode, data)
	}
	return decodeAccount(t, data)
}

func createPost(t *testing.T, env *testEnv, body string) domain.Post {
	t.Helper()
	resp, data := postJSON(t, env.srv.URL+"/api/posts", body)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create post status = %d: %s", resp.StatusCode, data)
	}
	return decodePost(t, data)
}

func TestConnectAccountSealsToken(t *testing.T) {
	env := newTestEnv(t, 0, false)
	resp, data := postJSON(t, env.srv.URL+"/api/accounts",
		`{"userId":"default_user","platform":"facebook","accountId":"page-1","accountName":"Windsor Homes","accessToken":"page-token-1"}`)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("status = %d, want 201: %s", resp.StatusCode, data)
	}
	if strings.Contains(string(data), "page-token-1") {
		t.Fatal("access token leaked into account response")
	}
	account := decodeAccount(t, data)
	if account.ID == "" || account.Platform != domain.PlatformFacebook || !account.Active {
		t.Fatalf("account = %+v", account)
	}
	if account.TokenExpiresAt == nil || !account.TokenExpiresAt.After(time.Now()) {
		t.Fatalf("tokenExpiresAt = %v, want future", account.TokenExpiresAt)
	}

	resp2, data2 := getJSON(t, env.srv.URL+"/api/accounts")
	if resp2.StatusCode != http.StatusOK {
		t.Fatalf("list status = %d, want 200", resp2.StatusCode)
	}
	var listed struct {
		Items []domain.Account `json:"items"`
		Count int              `json:"count"`
	}
	if err := json.Unmarshal(data2, &listed); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if listed.Count != 1 || listed.Items[0].ID != account.ID {
		t.Fatalf("list = %+v", listed)
	}
}

func TestConnectAccountUpsertsSameIdentity(t *testing.T) {
	env := newTestEnv(t, 0, false)
	first := connectAccount(t, env, "facebook", "page-1", "Windsor Homes")
	second := connectAccount(t, env, "facebook", "page-1", "Windsor Homes Page")
	if first.ID != second.ID {
		t.Fatalf("reconnect created new account: %q vs %q", first.ID, second.ID)
	}
	if second.Name != "Windsor Homes Page" {
		t.Fatalf("name = %q, want updated name", second.Name)
	}

	_, data := getJSON(t, env.srv.URL+"/api/accounts")
	var listed struct {
		Count int `json:"count"`
	}
	if err := json.Unmarshal(data, &listed); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if listed.Count != 1 {
		t.Fatalf("count = %d, want 1", listed.Count)
	}
}

func TestConnectAccountValidation(t *testing.T) {
	env := newTestEnv(t, 0, false)
	resp, data := postJSON(t, env.srv.URL+"/api/accounts",
		`{"userId":"default_user","platform":"facebook","accountId":"page-1","accountName":"Windsor Homes"}`)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}
	er := decodeError(t, data)
	if er.Code != "PUBLISH_FIELD_REQUIRED" {
		t.Fatalf("code = %q, want PUBLISH_FIELD_REQUIRED", er.Code)
	}
	if !strings.Contains(er.Error, "accessToken") {
		t.Fatalf("error = %q, want missing field name", er.Error)
	}

	resp2, data2 := postJSON(t, env.srv.URL+"/api/accounts",
		`{"userId":"default_user","platform":"tiktok","accountId":"x","accountName":"X","accessToken":"tok"}`)
	if resp2.StatusCode != http.StatusBadRequest {
		t.Fatalf("platform status = %d, want 400", resp2.StatusCode)
	}
	if er2 := decodeError(t, data2); er2.Code != "PUBLISH_UNKNOWN_PLATFORM" {
		t.Fatalf("code = %q, want PUBLISH_UNKNOWN_PLATFORM", er2.Code)
	}
}

func TestDisconnectAccount(t *testing.T) {
	env := newTestEnv(t, 0, false)
	account := connectAccount(t, env, "facebook", "page-1", "Windsor Homes")

	resp, _ := doRequest(t, http.MethodDelete, env.srv.URL+"/api/accounts/"+account.ID)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("delete status = %d, want 200", resp.StatusCode)
	}

	_, data := getJSON(t, env.srv.URL+"/api/accounts")
	var listed struct {
		Count int `json:"count"`
	}
	if err := json.Unmarshal(data, &listed); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if listed.Count != 0 {
		t.Fatalf("count after disconnect = %d, want 0", listed.Count)
	}

	resp2, data2 := doRequest(t, http.MethodDelete, env.srv.URL+"/api/accounts/missing")
	if resp2.StatusCode != http.StatusNotFound {
		t.Fatalf("missing delete status = %d, want 404", resp2.StatusCode)
	}
	if er := decodeError(t, data2); er.Code != "PUBLISH_ACCOUNT_NOT_FOUND" {
		t.Fatalf("code = %q, want PUBLISH_ACCOUNT_NOT_FOUND", er.Code)
	}
}

func TestCreatePostDraft(t *testing.T) {
	env := newTestEnv(t, 0, false)
	account := connectAccount(t, env, "facebook", "page-1", "Windsor Homes")
	post := createPost(t, env, fmt.Sprintf(
		`{"accountId":%q,"content":"New listing on Riverside Drive","hashtags":["#WindsorRealEstate","#JustListed"]}`,
		account.ID))
	if post.Status != domain.PostDraft {
		t.Fatalf("status = %q, want draft", post.Status)
	}
	if post.AccountID != account.ID || post.ID == "" {
		t.Fatalf("post = %+v", post)
	}

	resp, data := getJSON(t, env.srv.URL+"/api/posts/"+post.ID)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("get status = %d, want 200", resp.StatusCode)
	}
	if got := decodePost(t, data); got.Content != "New listing on Riverside Drive" {
		t.Fatalf("content = %q", got.Content)
	}
}

func TestCreatePostValidation(t *testing.T) {
	env := newTestEnv(t, 0, false)
	account := connectAccount(t, env, "facebook", "page-1", "Windsor Homes")

	resp, data := postJSON(t, env.srv.URL+"/api/posts", fmt.Sprintf(`{"accountId":%q}`, account.ID))
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("blank content status = %d, want 400", resp.StatusCode)
	}
	if er := decodeError(t, data); er.Code != "PUBLISH_FIELD_REQUIRED" {
		t.Fatalf("code = %q, want PUBLISH_FIELD_REQUIRED", er.Code)
	}

	resp2, data2 := postJSON(t, env.srv.URL+"/api/posts", `{"accountId":"missing","content":"Hello"}`)
	if resp2.StatusCode != http.StatusNotFound {
		t.Fatalf("unknown account status = %d, want 404", resp2.StatusCode)
	}
	if er := decodeError(t, data2); er.Code != "PUBLISH_ACCOUNT_NOT_FOUND" {
		t.Fatalf("code = %q, want PUBLISH_ACCOUNT_NOT_FOUND", er.Code)
	}

	// Disconnected accounts cannot receive posts.
	doRequest(t, http.MethodDelete, env.srv.URL+"/api/accounts/"+account.ID)
	resp3, _ := postJSON(t, env.srv.URL+"/api/posts", fmt.Sprintf(`{"accountId":%q,"content":"Hello"}`, account.ID))
	if resp3.StatusCode != http.StatusNotFound {
		t.Fatalf("inactive account status = %d, want 404", resp3.StatusCode)
	}
}

func TestCreatePostAttachesGeneratedImage(t *testing.T) {
	env := newTestEnv(t, http.StatusCreated, false)
	account := connectAccount(t, env, "facebook", "page-1", "Windsor Homes")
	post := createPost(t, env, fmt.Sprintf(
		`{"accountId":%q,"content":"Open house Saturday","imagePrompt":"modern home exterior"}`, account.ID))
	if post.ImageURL != "/generated_images/img-1.png" {
		t.Fatalf("imageUrl = %q, want generated path", post.ImageURL)
	}

	select {
	case req := <-env.mediaReqs:
		if req.Prompt != "modern home exterior" {
			t.Fatalf("prompt = %q", req.Prompt)
		}
		if req.Platform != "facebook" || req.ContentType != "post" {
			t.Fatalf("media request = %+v", req)
		}
	default:
		t.Fatal("media service was never called")
	}
}

func TestCreatePostImageFailureLeavesPostImageless(t *testing.T) {
	env := newTestEnv(t, http.StatusInternalServerError, false)
	account := connectAccount(t, env, "facebook", "page-1", "Windsor Homes")
	post := createPost(t, env, fmt.Sprintf(
		`{"accountId":%q,"content":"Open house Saturday","imagePrompt":"modern home exterior"}`, account.ID))
	if post.Status != domain.PostDraft {
		t.Fatalf("status = %q, want draft", post.Status)
	}
	if post.ImageURL != "" {
		t.Fatalf("imageUrl = %q, want empty after generation failure", post.ImageURL)
	}
}

func TestApprovePublishesUnscheduledPost(t *testing.T) {
	env := newTestEnv(t, http.StatusCreated, false)
	account := connectAccount(t, env, "facebook", "page-1", "Windsor Homes")
	post := createPost(t, env, fmt.Sprintf(
		`{"accountId":%q,"content":"New listing on Riverside Drive","hashtags":["#WindsorRealEstate","#JustListed"],"imagePrompt":"modern home exterior"}`,
		account.ID))

	resp, data := postJSON(t, env.srv.URL+"/api/posts/"+post.ID+"/approve", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("approve status = %d, want 200: %s", resp.StatusCode, data)
	}
	published := decodePost(t, data)
	if published.Status != domain.PostPosted {
		t.Fatalf("status = %q, want posted (%s)", published.Status, published.ErrorMessage)
	}
	if published.PlatformPostID != "page-1_99" {
		t.Fatalf("platformPostId = %q, want page-1_99", published.PlatformPostID)
	}
	if published.PostedAt == nil {
		t.Fatal("postedAt not set")
	}

	select {
	case form := <-env.feedForms:
		wantMessage := "New listing on Riverside Drive\n\n#WindsorRealEstate #JustListed"
		if form.Get("message") != wantMessage {
			t.Fatalf("message = %q, want %q", form.Get("message"), wantMessage)
		}
		if form.Get("access_token") != "page-token-1" {
			t.Fatalf("access_token = %q, want unsealed page token", form.Get("access_token"))
		}
		if form.Get("picture") != "https://media.example/generated_images/img-1.png" {
			t.Fatalf("picture = %q, want absolute image URL", form.Get("picture"))
		}
	default:
		t.Fatal("facebook feed was never called")
	}
}

func TestApproveScheduledPostWaitsForScheduler(t *testing.T) {
	env := newTestEnv(t, 0, false)
	account := connectAccount(t, env, "facebook", "page-1", "Windsor Homes")
	scheduledAt := time.Now().Add(time.Hour).UTC().Format(time.RFC3339)
	post := createPost(t, env, fmt.Sprintf(
		`{"accountId":%q,"content":"Coming soon","scheduledAt":%q}`, account.ID, scheduledAt))

	resp, data := postJSON(t, env.srv.URL+"/api/posts/"+post.ID+"/approve", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("approve status = %d, want 200: %s", resp.StatusCode, data)
	}
	approved := decodePost(t, data)
	if approved.Status != domain.PostApproved {
		t.Fatalf("status = %q, want approved", approved.Status)
	}
	if approved.PostedAt != nil {
		t.Fatal("postedAt set on scheduled post")
	}
	select {
	case form := <-env.feedForms:
		t.Fatalf("unexpected publish call: %v", form)
	default:
	}
}

func TestApproveRequiresDraft(t *testing.T) {
	env := newTestEnv(t, 0, false)
	account := connectAccount(t, env, "facebook", "page-1", "Windsor Homes")
	post := createPost(t, env, fmt.Sprintf(`{"accountId":%q,"content":"Hello Windsor"}`, account.ID))

	if resp, _ := postJSON(t, env.srv.URL+"/api/posts/"+post.ID+"/approve", ""); resp.StatusCode != http.StatusOK {
		t.Fatalf("first approve status = %d, want 200", resp.StatusCode)
	}
	resp2, data2 := postJSON(t, env.srv.URL+"/api/posts/"+post.ID+"/approve", "")
	if resp2.StatusCode != http.StatusBadRequest {
		t.Fatalf("second approve status = %d, want 400", resp2.StatusCode)
	}
	if er := decodeError(t, data2); er.Code != "PUBLISH_POST_NOT_DRAFT" {
		t.Fatalf("code = %q, want PUBLISH_POST_NOT_DRAFT", er.Code)
	}

	resp3, data3 := postJSON(t, env.srv.URL+"/api/posts/missing/approve", "")
	if resp3.StatusCode != http.StatusNotFound {
		t.Fatalf("missing approve status = %d, want 404", resp3.StatusCode)
	}
	if er := decodeError(t, data3); er.Code != "PUBLISH_POST_NOT_FOUND" {
		t.Fatalf("code = %q, want PUBLISH_POST_NOT_FOUND", er.Code)
	}
}

func TestPublishFailureMarksPostFailed(t *testing.T) {
	env := newTestEnv(t, 0, true)
	account := connectAccount(t, env, "facebook", "page-1", "Windsor Homes")
	post := createPost(t, env, fmt.Sprintf(`{"accountId":%q,"content":"Hello Windsor"}`, account.ID))

	resp, data := postJSON(t, env.srv.URL+"/api/posts/"+post.ID+"/approve", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("approve status = %d, want 200: %s", resp.StatusCode, data)
	}
	failed := decodePost(t, data)
	if failed.Status != domain.PostFailed {
		t.Fatalf("status = %q, want failed", failed.Status)
	}
	if !strings.Contains(failed.ErrorMessage, "Invalid OAuth access token") {
		t.Fatalf("errorMessage = %q, want platform error", failed.ErrorMessage)
	}

	// The failure is persisted.
	_, data2 := getJSON(t, env.srv.URL+"/api/posts/"+post.ID)
	if got := decodePost(t, data2); got.Status != domain.PostFailed {
		t.Fatalf("stored status = %q, want failed", got.Status)
	}
}

func TestInstagramPublishUsesContainerFlow(t *testing.T) {
	env := newTestEnv(t, 0, false)
	account := connectAccount(t, env, "instagram", "ig-1", "@windsorhomes")
	post := createPost(t, env, fmt.Sprintf(`{"accountId":%q,"content":"Sunset over the river","hashtags":["#Windsor"]}`, account.ID))

	resp, data := postJSON(t, env.srv.URL+"/api/posts/"+post.ID+"/publish", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("publish status = %d, want 200: %s", resp.StatusCode, data)
	}
	published := decodePost(t, data)
	if published.Status != domain.PostPosted || published.PlatformPostID != "ig-post-55" {
		t.Fatalf("post = %+v", published)
	}

	select {
	case form := <-env.igMedia:
		if form.Get("caption") != "Sunset over the river\n\n#Windsor" {
			t.Fatalf("caption = %q", form.Get("caption"))
		}
	default:
		t.Fatal("media container was never created")
	}
	select {
	case form := <-env.igPublish:
		if form.Get("creation_id") != "container-7" {
			t.Fatalf("creation_id = %q, want container-7", form.Get("creation_id"))
		}
	default:
		t.Fatal("media container was never published")
	}
}

func TestFacebookOAuthFlow(t *testing.T) {
	env := newTestEnv(t, 0, false)

	resp, data := getJSON(t, env.srv.URL+"/api/auth/facebook")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("login status = %d, want 200", resp.StatusCode)
	}
	var login struct {
		AuthURL string `json:"authUrl"`
	}
	if err := json.Unmarshal(data, &login); err != nil {
		t.Fatalf("decode login: %v", err)
	}
	parsed, err := url.Parse(login.AuthURL)
	if err != nil {
		t.Fatalf("parse auth url: %v", err)
	}
	if parsed.Query().Get("client_id") != "app-1" {
		t.Fatalf("client_id = %q, want app-1", parsed.Query().Get("client_id"))
	}
	state := parsed.Query().Get("state")
	if state == "" {
		t.Fatal("auth url carries no state")
	}

	resp2, data2 := getJSON(t, env.srv.URL+"/api/auth/facebook/callback?state="+url.QueryEscape(state)+"&code=code-1")
	if resp2.StatusCode != http.StatusOK {
		t.Fatalf("callback status = %d, want 200: %s", resp2.StatusCode, data2)
	}
	var callback struct {
		Accounts []graph.Account `json:"accounts"`
		Count    int             `json:"count"`
	}
	if err := json.Unmarshal(data2, &callback); err != nil {
		t.Fatalf("decode callback: %v", err)
	}
	if callback.Count != 2 {
		t.Fatalf("count = %d, want page + instagram", callback.Count)
	}
	if callback.Accounts[0].Platform != domain.PlatformFacebook || callback.Accounts[0].AccountID != "page-1" {
		t.Fatalf("first account = %+v", callback.Accounts[0])
	}
	if callback.Accounts[1].Platform != domain.PlatformInstagram || callback.Accounts[1].AccountName != "@windsorhomes" {
		t.Fatalf("second account = %+v", callback.Accounts[1])
	}

	// State tokens are single use.
	resp3, data3 := getJSON(t, env.srv.URL+"/api/auth/facebook/callback?state="+url.QueryEscape(state)+"&code=code-1")
	if resp3.StatusCode != http.StatusBadRequest {
		t.Fatalf("replay status = %d, want 400", resp3.StatusCode)
	}
	if er := decodeError(t, data3); er.Code != "PUBLISH_INVALID_OAUTH_STATE" {
		t.Fatalf("code = %q, want PUBLISH_INVALID_OAUTH_STATE", er.Code)
	}

	resp4, _ := getJSON(t, env.srv.URL+"/api/auth/facebook/callback?code=only")
	if resp4.StatusCode != http.StatusBadRequest {
		t.Fatalf("missing state status = %d, want 400", resp4.StatusCode)
	}
}

func TestOAuthStateExpires(t *testing.T) {
	env := newTestEnv(t, 0, false)

	_, data := getJSON(t, env.srv.URL+"/api/auth/facebook")
	var login struct {
		AuthURL string `json:"authUrl"`
	}
	if err := json.Unmarshal(data, &login); err != nil {
		t.Fatalf("decode login: %v", err)
	}
	parsed, _ := url.Parse(login.AuthURL)
	state := parsed.Query().Get("state")

	env.redis.FastForward(app.DefaultStateTTL + time.Minute)

	resp, data2 := getJSON(t, env.srv.URL+"/api/auth/facebook/callback?state="+url.QueryEscape(state)+"&code=code-1")
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expired state status = %d, want 400: %s", resp.StatusCode, data2)
	}
}

func TestListPostsFiltersByStatus(t *testing.T) {
	env := newTestEnv(t, 0, false)
	account := connectAccount(t, env, "facebook", "page-1", "Windsor Homes")
	createPost(t, env, fmt.Sprintf(`{"accountId":%q,"content":"Draft one"}`, account.ID))
	second := createPost(t, env, fmt.Sprintf(`{"accountId":%q,"content":"Going out now"}`, account.ID))
	postJSON(t, env.srv.URL+"/api/posts/"+second.ID+"/approve", "")

	_, data := getJSON(t, env.srv.URL+"/api/posts?status=draft")
	var drafts struct {
		Items []domain.Post `json:"items"`
		Count int           `json:"count"`
	}
	if err := json.Unmarshal(data, &drafts); err != nil {
		t.Fatalf("decode drafts: %v", err)
	}
	if drafts.Count != 1 || drafts.Items[0].Content != "Draft one" {
		t.Fatalf("drafts = %+v", drafts)
	}

	_, data2 := getJSON(t, env.srv.URL+"/api/posts?status=posted")
	var posted struct {
		Count int `json:"count"`
	}
	if err := json.Unmarshal(data2, &posted); err != nil {
		t.Fatalf("decode posted: %v", err)
	}
	if posted.Count != 1 {
		t.Fatalf("posted count = %d, want 1", posted.Count)
	}

	resp3, data3 := getJSON(t, env.srv.URL+"/api/posts?status=bogus")
	if resp3.StatusCode != http.StatusBadRequest {
		t.Fatalf("bogus status = %d, want 400", resp3.StatusCode)
	}
	if er := decodeError(t, data3); er.Code != "PUBLISH_INVALID_REQUEST" {
		t.Fatalf("code = %q, want PUBLISH_INVALID_REQUEST", er.Code)
	}

	// Posts are scoped to the requesting user.
	_, data4 := getJSON(t, env.srv.URL+"/api/posts?userId=somebody_else")
	var other struct {
		Count int `json:"count"`
	}
	if err := json.Unmarshal(data4, &other); err != nil {
		t.Fatalf("decode other user: %v", err)
	}
	if other.Count != 0 {
		t.Fatalf("other user count = %d, want 0", other.Count)
	}
}

func TestDeletePost(t *testing.T) {
	env := newTestEnv(t, 0, false)
	account := connectAccount(t, env, "facebook", "page-1", "Windsor Homes")
	post := createPost(t, env, fmt.Sprintf(`{"accountId":%q,"content":"Short lived"}`, account.ID))

	resp, _ := doRequest(t, http.MethodDelete, env.srv.URL+"/api/posts/"+post.ID)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("delete status = %d, want 200", resp.StatusCode)
	}
	resp2, _ := getJSON(t, env.srv.URL+"/api/posts/"+post.ID)
	if resp2.StatusCode != http.StatusNotFound {
		t.Fatalf("get deleted status = %d, want 404", resp2.StatusCode)
	}
}

func TestSchedulesLifecycle(t *testing.T) {
	env := newTestEnv(t, 0, false)

	resp, data := postJSON(t, env.srv.URL+"/api/schedules",
		`{"name":"Weekday mornings","description":"Post before the commute","config":{"platforms":["facebook"],"times":["09:00"]}}`)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create status = %d, want 201: %s", resp.StatusCode, data)
	}
	var schedule domain.Schedule
	if err := json.Unmarshal(data, &schedule); err != nil {
		t.Fatalf("decode schedule: %v", err)
	}
	if !schedule.Active || schedule.UserID != "default_user" {
		t.Fatalf("schedule = %+v", schedule)
	}
	times, ok := schedule.Config["times"].([]any)
	if !ok || len(times) != 1 || times[0] != "09:00" {
		t.Fatalf("config = %+v, want opaque round trip", schedule.Config)
	}

	_, data2 := getJSON(t, env.srv.URL+"/api/schedules")
	var listed struct {
		Count int `json:"count"`
	}
	if err := json.Unmarshal(data2, &listed); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if listed.Count != 1 {
		t.Fatalf("count = %d, want 1", listed.Count)
	}

	resp3, _ := doRequest(t, http.MethodDelete, env.srv.URL+"/api/schedules/"+schedule.ID)
	if resp3.StatusCode != http.StatusOK {
		t.Fatalf("delete status = %d, want 200", resp3.StatusCode)
	}
	resp4, data4 := doRequest(t, http.MethodDelete, env.srv.URL+"/api/schedules/"+schedule.ID)
	if resp4.StatusCode != http.StatusNotFound {
		t.Fatalf("second delete status = %d, want 404", resp4.StatusCode)
	}
	if er := decodeError(t, data4); er.Code != "PUBLISH_SCHEDULE_NOT_FOUND" {
		t.Fatalf("code = %q, want PUBLISH_SCHEDULE_NOT_FOUND", er.Code)
	}

	resp5, data5 := postJSON(t, env.srv.URL+"/api/schedules", `{"description":"no name"}`)
	if resp5.StatusCode != http.StatusBadRequest {
		t.Fatalf("missing name status = %d, want 400", resp5.StatusCode)
	}
	if er := decodeError(t, data5); er.Code != "PUBLISH_FIELD_REQUIRED" {
		t.Fatalf("code = %q, want PUBLISH_FIELD_REQUIRED", er.Code)
	}
}

func TestSchedulerPublishesDuePosts(t *testing.T) {
	env := newTestEnv(t, 0, false)
	account := connectAccount(t, env, "facebook", "page-1", "Windsor Homes")
	scheduledAt := time.Now().Add(-time.Minute).UTC().Format(time.RFC3339)
	post := createPost(t, env, fmt.Sprintf(
		`{"accountId":%q,"content":"Scheduled listing","scheduledAt":%q}`, account.ID, scheduledAt))

	resp, data := postJSON(t, env.srv.URL+"/api/posts/"+post.ID+"/approve", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("approve status = %d, want 200: %s", resp.StatusCode, data)
	}
	if approved := decodePost(t, data); approved.Status != domain.PostApproved {
		t.Fatalf("status = %q, want approved", approved.Status)
	}

	if err := env.app.DispatchDuePosts(context.Background()); err != nil {
		t.Fatalf("dispatch due posts: %v", err)
	}

	// The queue consumer picks the job up asynchronously.
	deadline := time.Now().Add(5 * time.Second)
	var got domain.Post
	for {
		_, data := getJSON(t, env.srv.URL+"/api/posts/"+post.ID)
		got = decodePost(t, data)
		if got.Status == domain.PostPosted || time.Now().After(deadline) {
			break
		}
		time.Sleep(50 * time.Millisecond)
	}
	if got.Status != domain.PostPosted {
		t.Fatalf("status = %q, want posted (%s)", got.Status, got.ErrorMessage)
	}
	if got.PlatformPostID != "page-1_99" {
		t.Fatalf("platformPostId = %q, want page-1_99", got.PlatformPostID)
	}

	select {
	case <-env.feedForms:
	default:
		t.Fatal("facebook feed was never called")
	}

	// A second sweep finds nothing left to claim.
	if err := env.app.DispatchDuePosts(context.Background()); err != nil {
		t.Fatalf("second dispatch: %v", err)
	}
}

func TestQueueWorkersStopOnContextCancel(t *testing.T) {
	env := newTestEnv(t, 0, false)
	account := connectAccount(t, env, "facebook", "page-1", "Windsor Homes")
	scheduledAt := time.Now().Add(-time.Minute).UTC().Format(time.RFC3339)
	post := createPost(t, env, fmt.Sprintf(
		`{"accountId":%q,"content":"Held back listing","scheduledAt":%q}`, account.ID, scheduledAt))

	if resp, data := postJSON(t, env.srv.URL+"/api/posts/"+post.ID+"/approve", ""); resp.StatusCode != http.StatusOK {
		t.Fatalf("approve status = %d, want 200: %s", resp.StatusCode, data)
	}

	env.stopWorkers()
	time.Sleep(100 * time.Millisecond)

	if err := env.app.DispatchDuePosts(context.Background()); err != nil {
		t.Fatalf("dispatch due posts: %v", err)
	}
	time.Sleep(200 * time.Millisecond)
	_, data := getJSON(t, env.srv.URL+"/api/posts/"+post.ID)
	if got := decodePost(t, data); got.Status != domain.PostScheduled {
		t.Fatalf("status = %q, want scheduled while workers are stopped", got.Status)
	}

	workerCtx, stop := context.WithCancel(context.Background())
	t.Cleanup(stop)
	env.app.StartWorkers(workerCtx)

	deadline := time.Now().Add(5 * time.Second)
	var got domain.Post
	for {
		_, data := getJSON(t, env.srv.URL+"/api/posts/"+post.ID)
		got = decodePost(t, data)
		if got.Status == domain.PostPosted || time.Now().After(deadline) {
			break
		}
		time.Sleep(50 * time.Millisecond)
	}
	if got.Status != domain.PostPosted {
		t.Fatalf("status = %q, want posted after workers restart (%s)", got.Status, got.ErrorMessage)
	}

	select {
	case <-env.feedForms:
	default:
		t.Fatal("facebook feed was never called")
	}
}

func TestHealthz(t *testing.T) {
	env := newTestEnv(t, 0, false)
	resp, data := getJSON(t, env.srv.URL+"/healthz")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	var payload map[string]string
	if err := json.Unmarshal(data, &payload); err != nil {
		t.Fatalf("decode health: %v", err)
	}
	if payload["status"] != "ok" {
		t.Fatalf("status = %q, want ok", payload["status"])
	}
}
