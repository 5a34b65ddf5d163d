package rabbitmq

import (
	"context"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// New dials the broker and proves the connection usable by opening a channel.
// connectionName shows up in the management UI.
func New(ctx context.Context, url, connectionName string) (*amqp.Connection, error) {
	dialTimeout := 3 * time.Second
	if deadline, ok := ctx.Deadline(); ok {
		if d := time.Until(deadline); d < dialTimeout {
			dialTimeout = d
		}
	}

	props := amqp.NewConnectionProperties()
	if connectionName != "" {
		props.SetClientConnectionName(connectionName)
	}
	conn, err := amqp.DialConfig(url, amqp.Config{
		Heartbeat:  10 * time.Second,
		Locale:     "en_US",
		Dial:       amqp.DefaultDial(dialTimeout),
		Properties: props,
	})
	if err != nil {
		return nil, fmt.Errorf("dial rabbitmq failed: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("open rabbitmq channel failed: %w", err)
	}
	_ = ch.Close()

	return conn, nil
}
