package router

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ocp-installer-helper/internal/clusterdata"
	"ocp-installer-helper/internal/config"
	"ocp-installer-helper/internal/handler"
	"ocp-installer-helper/internal/model"
	"ocp-installer-helper/internal/pkg/logger"
	"ocp-installer-helper/internal/pkg/metrics"
	"ocp-installer-helper/internal/pkg/shell"
	"ocp-installer-helper/internal/service"
)

type stubRunner struct {
	cmds []string
}

func (s *stubRunner) Run(_ context.Context, cmd string) (*shell.CommandResult, error) {
	s.cmds = append(s.cmds, cmd)
	return &shell.CommandResult{Stdout: "ok"}, nil
}

func (s *stubRunner) Start(ctx context.Context, cmd string, onLine func(string)) (*shell.Process, error) {
	s.cmds = append(s.cmds, cmd)
	return shell.NewExecutor().Start(ctx, "echo mirrored", onLine)
}

type testServer struct {
	engine *gin.Engine
	cfg    *config.Config
	runner *stubRunner
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	base := t.TempDir()
	cfg := &config.Config{
		Paths: config.PathsConfig{
			BaseDir:      base,
			DataDir:      filepath.Join(base, "data"),
			KeyDir:       filepath.Join(base, "keys"),
			ConfigDir:    filepath.Join(base, "create_config"),
			MirrorCA:     filepath.Join(base, "rootCA.pem"),
			RegistryAuth: filepath.Join(base, "pull-secret.json"),
		},
		Mirror:  config.MirrorConfig{ClientsURL: "http://127.0.0.1:0/", CommandTimeout: 10},
		Bastion: config.BastionConfig{Interface: "enp1s0", UseSudo: true},
	}
	log := logger.NewNop()
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	runner := &stubRunner{}

	commands := service.NewCommandService(cfg, runner, log, m)
	clusters := service.NewClusterService(clusterdata.NewStore(cfg.Paths.DataDir), log)
	tasks := service.NewMirrorTaskService(cfg, runner, log, m)

	h := Handlers{
		Mirror: handler.NewMirrorHandler(
			service.NewVersionService(cfg, nil, log),
			commands,
			service.NewOperatorService(cfg, commands, log),
			service.NewMirrorService(cfg, log, m),
			tasks,
			log,
		),
		Installer: handler.NewInstallerHandler(
			clusters,
			service.NewSSHKeyService(cfg.Paths.KeyDir, log),
			service.NewInstallerService(cfg, log, m),
			service.NewBastionService(cfg, commands, clusters),
		),
		Form:   handler.NewFormHandler(service.NewFormService(clusters, log, m)),
		Stream: handler.NewStreamHandler(tasks, []string{"http://localhost:5023"}, log),
	}

	r := gin.New()
	RegisterRoutes(r, h, reg)
	return &testServer{engine: r, cfg: cfg, runner: runner}
}

func (s *testServer) do(t *testing.T, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	s.engine.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, out interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), out), w.Body.String())
}

const clusterCSV = "metadata_name,base_domain,interface_master0,mac_master0,nodeip_master0,prefix_master0,dns_master0,gw_master0,disk_master0\n" +
	"ocp,example.com,ens3,52:54:00:00:00:01,10.0.0.10,24,10.0.0.5,10.0.0.1,/dev/vda\n"

func (s *testServer) upload(t *testing.T, filename, content string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("node_info_file", filename)
	require.NoError(t, err)
	_, err = fw.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/upload-nodes", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	s.engine.ServeHTTP(w, req)
	return w
}

func Test_Health(t *testing.T) {
	s := newTestServer(t)
	w := s.do(t, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}

func Test_UploadAndLoadClusterInfo(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodGet, "/api/load-cluster-info", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = s.upload(t, "cluster.txt", clusterCSV)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.upload(t, "cluster.csv", "a,b\n1\n")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.upload(t, "cluster.csv", clusterCSV)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = s.do(t, http.MethodGet, "/api/load-cluster-info", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var ds map[string]string
	decode(t, w, &ds)
	assert.Equal(t, "ocp", ds["metadata_name"])
}

func Test_FormSessionFlow(t *testing.T) {
	s := newTestServer(t)
	require.Equal(t, http.StatusOK, s.upload(t, "cluster.csv", clusterCSV).Code)

	w := s.do(t, http.MethodPost, "/api/form/sessions", nil)
	require.Equal(t, http.StatusCreated, w.Code)
	var st model.SessionState
	decode(t, w, &st)
	base := "/api/form/sessions/" + st.SessionID

	w = s.do(t, http.MethodPost, base+"/nodes", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var added model.AddNodeResponse
	decode(t, w, &added)
	node := fmt.Sprintf("%s/nodes/%d", base, added.Index)

	w = s.do(t, http.MethodPost, base+"/build", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	var failed model.BuildNodesResponse
	decode(t, w, &failed)
	require.NotNil(t, failed.Index)
	assert.Equal(t, added.Index, *failed.Index)

	w = s.do(t, http.MethodPut, node+"/hostname", model.SetHostnameRequest{Hostname: "master0"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(t, http.MethodPut, node+"/role", model.SetRoleRequest{Role: "master"})
	require.Equal(t, http.StatusOK, w.Code)

	w = s.do(t, http.MethodGet, node+"/candidates", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"candidates":["master0","master1","master2"]}`, w.Body.String())

	w = s.do(t, http.MethodPut, node+"/hostname", model.SetHostnameRequest{Hostname: "master0"})
	require.Equal(t, http.StatusOK, w.Code)

	w = s.do(t, http.MethodPut, node+"/interface-type", model.SetInterfaceTypeRequest{InterfaceType: "vlan"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(t, http.MethodPost, base+"/build", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var built model.BuildNodesResponse
	decode(t, w, &built)
	require.Len(t, built.Hosts, 1)
	assert.Equal(t, "master0.ocp.example.com", built.Hosts[0].Hostname)

	form := url.Values{}
	form.Set("metadata_name", "ocp")
	form.Set("rendezvousIP", "10.0.0.10")
	form.Set("nodes_data_hidden", built.NodesData)
	req := httptest.NewRequest(http.MethodPost, "/generate-agent-config", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	s.engine.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	var res model.Result
	decode(t, rec, &res)
	assert.True(t, res.Success, res.Error)

	data, err := os.ReadFile(filepath.Join(s.cfg.Paths.ConfigDir, "agent-config.yaml"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "next-hop-address: 10.0.0.1")

	w = s.do(t, http.MethodDelete, node, nil)
	require.Equal(t, http.StatusOK, w.Code)
	w = s.do(t, http.MethodDelete, node, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = s.do(t, http.MethodDelete, base, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
	w = s.do(t, http.MethodGet, base, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func Test_RoleCapacityConflict(t *testing.T) {
	s := newTestServer(t)
	var st model.SessionState
	decode(t, s.do(t, http.MethodPost, "/api/form/sessions", nil), &st)
	base := "/api/form/sessions/" + st.SessionID

	for i := 0; i < 4; i++ {
		require.Equal(t, http.StatusOK, s.do(t, http.MethodPost, base+"/nodes", nil).Code)
	}
	for i := 0; i < 3; i++ {
		w := s.do(t, http.MethodPut, fmt.Sprintf("%s/nodes/%d/role", base, i), model.SetRoleRequest{Role: "infra"})
		require.Equal(t, http.StatusOK, w.Code)
	}
	w := s.do(t, http.MethodPut, base+"/nodes/3/role", model.SetRoleRequest{Role: "infra"})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = s.do(t, http.MethodPut, base+"/nodes/x/role", model.SetRoleRequest{Role: "infra"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func Test_ExecuteCommand(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodPost, "/api/execute-command", model.ExecuteCommandRequest{CommandKey: "oc_version"})
	require.Equal(t, http.StatusOK, w.Code)
	var res model.Result
	decode(t, w, &res)
	assert.True(t, res.Success)
	assert.Equal(t, "ok", res.Output)
	assert.Equal(t, []string{"oc version"}, s.runner.cmds)

	w = s.do(t, http.MethodPost, "/api/execute-command", map[string]string{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func Test_SSHKeys(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodGet, "/api/get-ssh-key/ocp", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = s.do(t, http.MethodPost, "/generate-ssh-key", model.GenerateSSHKeyRequest{KeyName: "ocp"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = s.do(t, http.MethodPost, "/generate-ssh-key", model.GenerateSSHKeyRequest{KeyName: "ocp"})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = s.do(t, http.MethodGet, "/api/get-ssh-key/ocp", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var key model.SSHKeyResponse
	decode(t, w, &key)
	assert.True(t, strings.HasPrefix(key.Key, "ssh-rsa "))
}

func Test_MirrorProgressAndMetrics(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodGet, "/api/mirror/progress/unknown", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = s.do(t, http.MethodPost, "/api/run-mirror", struct{}{})
	var run model.RunMirrorResponse
	decode(t, w, &run)
	assert.False(t, run.Success)
	assert.Contains(t, run.Error, "imageset configuration has not been generated")

	w = s.do(t, http.MethodPost, "/api/apply-pull-secret", model.ApplyPullSecretRequest{PullSecret: `{"auths":{}}`})
	var res model.Result
	decode(t, w, &res)
	assert.True(t, res.Success, res.Error)

	w = s.do(t, http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `ocp_installer_helper_artifacts_generated_total{kind="pull-secret"} 1`)
}

func Test_MirrorStream(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodPost, "/api/generate-imageset", map[string]interface{}{
		"majorVersion": "4.16",
		"minVersion":   "4.16.3",
		"maxVersion":   "4.16.10",
	})
	var res model.Result
	decode(t, w, &res)
	require.True(t, res.Success, res.Error)

	w = s.do(t, http.MethodPost, "/api/run-mirror", struct{}{})
	var run model.RunMirrorResponse
	decode(t, w, &run)
	require.True(t, run.Success, run.Error)

	srv := httptest.NewServer(s.engine)
	defer srv.Close()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/mirror/stream/" + run.TaskID
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	var lines []string
	for {
		require.NoError(t, conn.SetReadDeadline(time.Now().Add(10*time.Second)))
		_, msg, err := conn.ReadMessage()
		if err != nil {
			assert.True(t, websocket.IsCloseError(err, websocket.CloseNormalClosure), err)
			break
		}
		lines = append(lines, string(msg))
	}
	assert.Contains(t, lines, "mirrored")
	assert.Contains(t, s.runner.cmds[0], "oc mirror --config=")

	_, resp, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+"/api/mirror/stream/unknown", nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
