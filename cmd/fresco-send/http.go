package main

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
)

var httpClient = &http.Client{Timeout: defaultSendTimeout}

type sendError struct {
	Code    int
	Message string
}

func (e *sendError) Error() string {
	return e.Message
}

func sendErrf(code int, format string, args ...any) *sendError {
	return &sendError{Code: code, Message: fmt.Sprintf(format, args...)}
}

func handleSendError(err error, errOut io.Writer) int {
	var sendErr *sendError
	if errors.As(err, &sendErr) {
		fmt.Fprintln(errOut, sendErr.Message)
		if sendErr.Code != 0 {
			return sendErr.Code
		}
	} else {
		fmt.Fprintln(errOut, err.Error())
	}
	return exitCodeNetwork
}

// performAction posts reload/shutdown requests or fetches the status
// page. Status output goes to out.
func performAction(cfg Config, out io.Writer) error {
	baseURL := strings.TrimRight(cfg.URL, "/")
	if baseURL == "" {
		baseURL = defaultWatcherURL
	}

	switch cfg.Action {
	case actionReload:
		return postControl(cfg, baseURL+"/api/reload")
	case actionShutdown:
		return postControl(cfg, baseURL+"/api/shutdown")
	case actionStatus:
		return fetchStatus(cfg, baseURL+"/healthz", out)
	}
	return sendErrf(exitCodeUsage, "unknown action %q", cfg.Action)
}

func postControl(cfg Config, target string) error {
	logf(cfg, "posting to %s", target)
	resp, err := httpClient.Post(target, "application/json", nil)
	if err != nil {
		return sendErrf(exitCodeNetwork, "post %s: %v", target, err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))

	if err := checkResponse(resp.StatusCode, body); err != nil {
		return err
	}
	logf(cfg, "response status: %d %s", resp.StatusCode, http.StatusText(resp.StatusCode))
	return nil
}

func fetchStatus(cfg Config, target string, out io.Writer) error {
	logf(cfg, "fetching %s", target)
	resp, err := httpClient.Get(target)
	if err != nil {
		return sendErrf(exitCodeNetwork, "get %s: %v", target, err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
	if err != nil {
		return sendErrf(exitCodeNetwork, "read response: %v", err)
	}

	if err := checkResponse(resp.StatusCode, body); err != nil {
		return err
	}
	_, err = out.Write(body)
	return err
}

func checkResponse(status int, body []byte) error {
	if status < http.StatusBadRequest {
		return nil
	}
	message := strings.TrimSpace(string(body))
	if message == "" {
		message = http.StatusText(status)
	}
	if status < http.StatusInternalServerError {
		return sendErrf(exitCodeRejected, "watcher rejected request: %s", message)
	}
	return sendErrf(exitCodeNetwork, "watcher error: %s", message)
}

func logf(cfg Config, format string, args ...any) {
	if cfg.LogWriter == nil || !cfg.Verbose {
		return
	}
	fmt.Fprintf(cfg.LogWriter, format+"\n", args...)
}

func applyTimeout(cfg Config) {
	if cfg.Timeout <= 0 {
		return
	}
	if httpClient.Timeout != cfg.Timeout {
		httpClient.Timeout = cfg.Timeout
	}
}
