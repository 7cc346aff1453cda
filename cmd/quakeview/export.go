package main

import (
	"errors"
	"fmt"

	kafkaadapter "github.com/couchcryptid/quake-explorer/internal/adapter/kafka"
)

var errExportDisabled = errors.New("export needs KAFKA_BROKERS")

type exportCmd struct {
	filterFlags   `embed:""`
	samplingFlags `embed:""`

	Topic string `help:"Destination topic. Overrides KAFKA_TOPIC."`
}

func (c *exportCmd) Run(e *env) error {
	if c.Topic != "" {
		e.cfg.KafkaTopic = c.Topic
	}
	if !e.cfg.ExportEnabled() {
		return errExportDisabled
	}
	q, err := c.query()
	if err != nil {
		return err
	}
	if err := c.samplingFlags.apply(&q); err != nil {
		return err
	}

	res, err := e.service().LinkedEvents(e.ctx, q)
	if err != nil {
		return err
	}
	printWarnings(res.Warnings)

	writer := kafkaadapter.NewWriter(e.cfg, e.logger, e.metrics)
	defer func() {
		if err := writer.Close(); err != nil {
			e.logger.Error("kafka writer close error", "error", err)
		}
	}()

	if err := writer.Publish(e.ctx, res.Data); err != nil {
		return err
	}
	e.logger.Info("linked events exported", "topic", e.cfg.KafkaTopic, "links", len(res.Data), "rows", res.Rows)
	fmt.Fprintf(e.out, "published %d linked events to %s\n", len(res.Data), e.cfg.KafkaTopic)
	return nil
}
