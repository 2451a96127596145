package service

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/google/uuid"

	"ocp-installer-helper/internal/config"
	"ocp-installer-helper/internal/model"
	"ocp-installer-helper/internal/pkg/logger"
	"ocp-installer-helper/internal/pkg/metrics"
	"ocp-installer-helper/internal/pkg/shell"
)

const (
	TaskRunning = "running"
	TaskSuccess = "success"
	TaskError   = "error"

	subscriberBuffer = 256
)

var (
	ErrTaskNotFound    = errors.New("task not found")
	ErrImageSetMissing = errors.New("imageset configuration has not been generated")
)

type mirrorTask struct {
	status      string
	logs        []string
	err         string
	subscribers map[chan string]struct{}
}

// MirrorTaskService runs "oc mirror" in the background and keeps the output
// of every run for polling and streaming.
type MirrorTaskService struct {
	cfg     *config.Config
	runner  shell.Runner
	logger  *logger.Logger
	metrics *metrics.Metrics

	mu    sync.Mutex
	tasks map[string]*mirrorTask
}

func NewMirrorTaskService(cfg *config.Config, runner shell.Runner, logger *logger.Logger, m *metrics.Metrics) *MirrorTaskService {
	return &MirrorTaskService{
		cfg:     cfg,
		runner:  runner,
		logger:  logger,
		metrics: m,
		tasks:   make(map[string]*mirrorTask),
	}
}

// Start launches oc mirror against configFile and returns the task id. The
// process outlives the request, so it runs under a background context.
func (s *MirrorTaskService) Start(configFile string) (string, error) {
	if _, err := os.Stat(configFile); err != nil {
		return "", fmt.Errorf("%w: %s", ErrImageSetMissing, configFile)
	}

	taskID := uuid.New().String()
	cmd := fmt.Sprintf("oc mirror --config=%s file://%s", configFile, s.cfg.Paths.MirrorImagesDir())

	s.mu.Lock()
	s.tasks[taskID] = &mirrorTask{
		status:      TaskRunning,
		logs:        []string{"Mirroring started: " + cmd},
		subscribers: make(map[chan string]struct{}),
	}
	s.mu.Unlock()

	s.logger.CommandStart("run_mirror", cmd)
	proc, err := s.runner.Start(context.Background(), cmd, func(line string) {
		s.append(taskID, line)
	})
	if err != nil {
		s.finish(taskID, err)
		return "", err
	}
	s.metrics.MirrorTasks.Inc()

	go func() {
		defer s.metrics.MirrorTasks.Dec()
		s.finish(taskID, proc.Wait())
	}()
	return taskID, nil
}

func (s *MirrorTaskService) append(taskID, line string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	task, ok := s.tasks[taskID]
	if !ok {
		return
	}
	task.logs = append(task.logs, line)
	for ch := range task.subscribers {
		select {
		case ch <- line:
		default:
			// slow subscriber; the line stays available through Progress
		}
	}
}

func (s *MirrorTaskService) finish(taskID string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	task, ok := s.tasks[taskID]
	if !ok {
		return
	}

	var last string
	if err != nil {
		task.status = TaskError
		task.err = err.Error()
		last = fmt.Sprintf("Mirroring failed: %v", err)
		s.logger.With("task", taskID).Errorf("oc mirror failed: %v", err)
	} else {
		task.status = TaskSuccess
		last = "Mirroring completed successfully"
		s.logger.With("task", taskID).Info("oc mirror completed")
	}
	task.logs = append(task.logs, last)

	for ch := range task.subscribers {
		select {
		case ch <- last:
		default:
		}
		close(ch)
	}
	task.subscribers = map[chan string]struct{}{}
}

func (s *MirrorTaskService) Progress(taskID string) (*model.ProgressResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	task, ok := s.tasks[taskID]
	if !ok {
		return nil, ErrTaskNotFound
	}
	logs := make([]string, len(task.logs))
	copy(logs, task.logs)
	return &model.ProgressResponse{
		Success: task.status != TaskError,
		Status:  task.status,
		Logs:    logs,
		Error:   task.err,
	}, nil
}

// Subscribe returns the log lines so far and a channel carrying the lines
// that follow. The channel is closed when the task ends or cancel is called.
// Lines are dropped for a subscriber whose buffer is full; Progress still
// returns the complete log.
func (s *MirrorTaskService) Subscribe(taskID string) (history []string, lines <-chan string, cancel func(), err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	task, ok := s.tasks[taskID]
	if !ok {
		return nil, nil, nil, ErrTaskNotFound
	}

	history = make([]string, len(task.logs))
	copy(history, task.logs)

	ch := make(chan string, subscriberBuffer)
	if task.status != TaskRunning {
		close(ch)
		return history, ch, func() {}, nil
	}
	task.subscribers[ch] = struct{}{}

	var once sync.Once
	cancel = func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			if _, ok := task.subscribers[ch]; ok {
				delete(task.subscribers, ch)
				close(ch)
			}
		})
	}
	return history, ch, cancel, nil
}
