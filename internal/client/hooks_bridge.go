package client

import (
	"context"
	"sync"

	"github.com/eclipse-ditto-go/connectivity-core/internal/observability"
	"github.com/eclipse-ditto-go/connectivity-core/internal/publish"
)

// startConnect runs Hooks.DoConnect on the worker pool and delivers its
// outcome back into the mailbox as clientConnected/connectionFailure,
// never blocking the event loop.
func (c *BaseClient) startConnect() {
	conn := c.data.Connection
	c.deps.Workers.Submit(func() {
		err := c.deps.Hooks.DoConnect(context.Background(), conn)
		c.deliver(connectResult(err))
	})
}

func connectResult(err error) any {
	if err != nil {
		return connectionFailure{err: err}
	}
	return clientConnected{}
}

func (c *BaseClient) startDisconnect() {
	conn := c.data.Connection
	c.deps.Workers.Submit(func() {
		err := c.deps.Hooks.DoDisconnect(context.Background(), conn)
		if err != nil {
			c.deliver(connectionFailure{err: err})
			return
		}
		c.deliver(clientDisconnected{})
	})
}

// startTest runs doTestConnection and mapper initialization concurrently
// and combines them: success iff both succeed.
func (c *BaseClient) startTest() {
	conn := c.data.Connection
	mappingCtx := conn.MappingContext
	factory := c.deps.MapperFactory
	runtime := c.deps.MapperRuntime

	c.deps.Workers.Submit(func() {
		var wg sync.WaitGroup
		var transportErr, mapperErr error

		wg.Add(2)
		go func() {
			defer wg.Done()
			transportErr = c.deps.Hooks.DoTestConnection(context.Background(), conn)
		}()
		go func() {
			defer wg.Done()
			_, mapperErr = factory(context.Background(), conn.ID, mappingCtx, runtime)
		}()
		wg.Wait()

		err := transportErr
		if err == nil {
			err = mapperErr
		}
		c.deliver(testOutcome{err: err})
	})
}

func (c *BaseClient) startMapper() {
	conn := c.data.Connection
	mapper, err := c.deps.MapperFactory(context.Background(), conn.ID, conn.MappingContext, c.deps.MapperRuntime)
	if err != nil {
		c.deps.Observability.Logger().Error(context.Background(), "mapper initialization failed",
			observability.String("connection_id", conn.ID), observability.Error(err))
		return
	}
	c.mapper = mapper
}

func (c *BaseClient) stopMapper() {
	c.mapper = nil
}

// setupPipelines builds one publish.Pipeline per configured Target via
// the transport Hooks, wiring each one's onFatal callback to self-report
// a ConnectionFailure.
func (c *BaseClient) setupPipelines() {
	conn := c.data.Connection
	pipelines, err := c.deps.Hooks.GetPublisherPipelines(context.Background(), conn, c.deps.Registry, func(err error) {
		c.deliver(connectionFailure{err: err})
	})
	if err != nil {
		c.deps.Observability.Logger().Error(context.Background(), "publisher pipeline setup failed",
			observability.String("connection_id", conn.ID), observability.Error(err))
		return
	}
	c.pipelines = pipelines
}

// Pipeline returns the publisher pipeline bound to target, if the
// client is connected and that target is configured.
func (c *BaseClient) Pipeline(target string) (*publish.Pipeline, bool) {
	result := make(chan *publish.Pipeline, 1)
	select {
	case c.mailbox <- pipelineRequest{target: target, reply: result}:
	case <-c.done:
		return nil, false
	}
	select {
	case p := <-result:
		return p, p != nil
	case <-c.done:
		return nil, false
	}
}

type pipelineRequest struct {
	target string
	reply  chan *publish.Pipeline
}

// deliver posts an internal event to the mailbox without blocking
// forever if the client has already stopped.
func (c *BaseClient) deliver(event any) {
	select {
	case c.mailbox <- event:
	case <-c.done:
	}
}
