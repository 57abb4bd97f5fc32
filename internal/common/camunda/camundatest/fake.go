// Package camundatest provides an in-memory Zeebe gateway for handler tests.
package camundatest

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/camunda/zeebe/clients/go/v8/pkg/commands"
	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/pb"
	"google.golang.org/grpc"
)

// Gateway records the job and message commands sent through it. Unimplemented RPCs panic.
type Gateway struct {
	pb.GatewayClient

	mu         sync.Mutex
	Completed  []*pb.CompleteJobRequest
	Failed     []*pb.FailJobRequest
	Thrown     []*pb.ThrowErrorRequest
	Published  []*pb.PublishMessageRequest
	PublishErr error
}

func (g *Gateway) CompleteJob(_ context.Context, in *pb.CompleteJobRequest, _ ...grpc.CallOption) (*pb.CompleteJobResponse, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.Completed = append(g.Completed, in)
	return &pb.CompleteJobResponse{}, nil
}

func (g *Gateway) FailJob(_ context.Context, in *pb.FailJobRequest, _ ...grpc.CallOption) (*pb.FailJobResponse, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.Failed = append(g.Failed, in)
	return &pb.FailJobResponse{}, nil
}

func (g *Gateway) ThrowError(_ context.Context, in *pb.ThrowErrorRequest, _ ...grpc.CallOption) (*pb.ThrowErrorResponse, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.Thrown = append(g.Thrown, in)
	return &pb.ThrowErrorResponse{}, nil
}

func (g *Gateway) PublishMessage(_ context.Context, in *pb.PublishMessageRequest, _ ...grpc.CallOption) (*pb.PublishMessageResponse, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.PublishErr != nil {
		return nil, g.PublishErr
	}
	g.Published = append(g.Published, in)
	return &pb.PublishMessageResponse{Key: int64(len(g.Published))}, nil
}

// CompletedVariables decodes the variables of the i-th completed job.
func (g *Gateway) CompletedVariables(i int) (map[string]interface{}, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	vars := map[string]interface{}{}
	err := json.Unmarshal([]byte(g.Completed[i].Variables), &vars)
	return vars, err
}

func neverRetry(context.Context, error) bool { return false }

// JobClient implements worker.JobClient on top of a Gateway.
type JobClient struct {
	Gateway *Gateway
}

func NewJobClient() *JobClient {
	return &JobClient{Gateway: &Gateway{}}
}

func (c *JobClient) NewCompleteJobCommand() commands.CompleteJobCommandStep1 {
	return commands.NewCompleteJobCommand(c.Gateway, neverRetry)
}

func (c *JobClient) NewFailJobCommand() commands.FailJobCommandStep1 {
	return commands.NewFailJobCommand(c.Gateway, neverRetry)
}

func (c *JobClient) NewThrowErrorCommand() commands.ThrowErrorCommandStep1 {
	return commands.NewThrowErrorCommand(c.Gateway, neverRetry)
}

// MessagePublisher publishes messages through a Gateway.
type MessagePublisher struct {
	Gateway *Gateway
}

func (p *MessagePublisher) NewPublishMessageCommand() commands.PublishMessageCommandStep1 {
	return commands.NewPublishMessageCommand(p.Gateway, neverRetry)
}

// NewJob builds an activated job carrying variables as JSON.
func NewJob(key int64, taskType string, variables map[string]interface{}) entities.Job {
	varsJSON, _ := json.Marshal(variables)
	return entities.Job{
		ActivatedJob: &pb.ActivatedJob{
			Key:                key,
			Type:               taskType,
			ProcessInstanceKey: 12345,
			BpmnProcessId:      "funding-match",
			ElementId:          taskType,
			Retries:            3,
			Variables:          string(varsJSON),
		},
	}
}
