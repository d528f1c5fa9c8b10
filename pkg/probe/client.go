// Copyright (c) 2025 The echod Authors. All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package probe is a WebSocket client for checking a running echod from the
// outside: it dials, sends text messages and reads the tagged echoes back.
package probe

import (
	"bytes"
	"context"
	"io"
	"net"
	"time"

	"github.com/gobwas/ws"
	"github.com/gobwas/ws/wsutil"
)

// Client is one WebSocket connection to an echo server. It is not safe for
// concurrent use.
type Client struct {
	conn    net.Conn
	rw      io.ReadWriter
	timeout time.Duration
}

type readWriter struct {
	io.Reader
	io.Writer
}

// Dial opens a WebSocket connection to url, e.g. ws://localhost:8080.
func Dial(ctx context.Context, url string, options ...Option) (*Client, error) {
	opts := loadOptions(options...)
	dialer := ws.Dialer{Timeout: opts.Timeout}
	conn, br, _, err := dialer.Dial(ctx, url)
	if err != nil {
		return nil, err
	}
	c := &Client{conn: conn, rw: conn, timeout: opts.Timeout}
	if br != nil {
		// The server spoke right after the handshake; replay what br holds.
		early := make([]byte, br.Buffered())
		_, _ = io.ReadFull(br, early)
		ws.PutReader(br)
		c.rw = readWriter{io.MultiReader(bytes.NewReader(early), conn), conn}
	}
	return c, nil
}

// Send writes text as a single text frame.
func (c *Client) Send(text string) error {
	if err := c.conn.SetWriteDeadline(time.Now().Add(c.timeout)); err != nil {
		return err
	}
	return wsutil.WriteClientText(c.conn, []byte(text))
}

// Receive reads the next data message, answering pings on the way.
func (c *Client) Receive() (string, ws.OpCode, error) {
	return c.ReceiveWithin(c.timeout)
}

// ReceiveWithin is Receive with its own deadline.
func (c *Client) ReceiveWithin(d time.Duration) (string, ws.OpCode, error) {
	if err := c.conn.SetReadDeadline(time.Now().Add(d)); err != nil {
		return "", 0, err
	}
	data, op, err := wsutil.ReadServerData(c.rw)
	if err != nil {
		return "", 0, err
	}
	return string(data), op, nil
}

// Echo sends text and waits for the reply.
func (c *Client) Echo(text string) (string, error) {
	if err := c.Send(text); err != nil {
		return "", err
	}
	reply, _, err := c.Receive()
	return reply, err
}

// SendBinary writes data as a single binary frame.
func (c *Client) SendBinary(data []byte) error {
	if err := c.conn.SetWriteDeadline(time.Now().Add(c.timeout)); err != nil {
		return err
	}
	return wsutil.WriteClientBinary(c.conn, data)
}

// Close says goodbye with a normal closure and closes the connection.
func (c *Client) Close() error {
	_ = c.conn.SetWriteDeadline(time.Now().Add(c.timeout))
	body := ws.NewCloseFrameBody(ws.StatusNormalClosure, "")
	_ = wsutil.WriteClientMessage(c.conn, ws.OpClose, body)
	return c.conn.Close()
}

// Abort drops the connection without a close frame.
func (c *Client) Abort() error {
	return c.conn.Close()
}

// LocalAddr returns the local address of the connection.
func (c *Client) LocalAddr() net.Addr {
	return c.conn.LocalAddr()
}
