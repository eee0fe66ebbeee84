package signaling

// handleSignal forwards one negotiation payload (offer, answer or ICE
// candidate) verbatim to the connection named in To, tagged with the sender's
// id. No room membership check: any connection known to the hub is a valid
// target, and a target that has already gone away is silently skipped.
func (h *Hub) handleSignal(c *Client, event string, data SignalData) {
	target := data.To
	data.To = ""
	data.From = c.ID

	var out string
	switch event {
	case EventSendOffer:
		out = EventReceiveOffer
	case EventSendAnswer:
		out = EventReceiveAnswer
	case EventSendICECandidate:
		out = EventReceiveICE
	default:
		return
	}

	h.sendTo(target, out, data)
}
