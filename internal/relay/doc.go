// Package relay is the signaling core: the registry of live connections and
// their sessions, the room directory, the message router, and the broadcast
// engine.
//
// The relay brokers WebRTC handshake metadata between peers in the same room
// and never inspects or terminates media traffic. Delivery is best effort:
// there is no queuing for absent peers, no retries, and no error replies.
package relay
