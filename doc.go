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

/*
Package echod is a WebSocket echo server running on a single gnet event loop.

Every text or binary message a client sends comes back to that client only,
with the same opcode and the payload

	[<tag>] server received: <message>

All socket events of all connections are handled on one loop, so replies to a
connection leave in the order its messages arrived. Connect, message and
disconnect events go to the configured logging.Logger.

Starting a server on a given port:

	package main

	import (
		"context"
		"log"

		"github.com/tlg/echod"
	)

	func main() {
		srv, err := echod.Start(8080, echod.WithTag("echod"))
		if err != nil {
			log.Fatal(err)
		}
		defer srv.Stop(context.Background())
		<-srv.Done()
	}

The single-instance lock, port negotiation and the audit log are composed
around the server by internal/bootstrap.
*/
package echod
