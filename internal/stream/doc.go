// Package stream implements the client half of Socket.IO v4 (Engine.IO v4) over a websocket.
//
// # Connection
//
// [Client.Dial] opens the websocket at /socket.io/?EIO=4&transport=websocket, reads the Engine.IO
// open packet, joins the default namespace and returns a [Conn].
//
// # Messages
//
// A reader goroutine answers server pings, tracks the read deadline advertised in the open packet
// and queues event packets. [Conn.Next] returns them in arrival order as [Message] values.
// Only the first event argument is kept; acknowledgements and binary attachments are not supported.
//
// Polling transport and custom namespaces are out of scope.
package stream
