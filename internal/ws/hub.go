package ws

// Subscriber abstracts a streaming client.
type Subscriber interface {
	Send([]byte) error
	Close()
}

// Hub fans onboarding events out to stream subscribers, keyed by onboarding
// ID. The wizard UI subscribes to the record it is driving; polling endpoints
// stay authoritative and the hub is advisory only.
type Hub struct {
	clients   map[string]map[Subscriber]struct{}
	register  chan subscription
	unreg     chan subscription
	broadcast chan message
}

// message couples payload with onboarding identifier.
type message struct {
	onboardingID string
	payload      []byte
}

// subscription defines register/unregister requests.
type subscription struct {
	onboardingID string
	client       Subscriber
}

// NewHub creates an initialized Hub.
func NewHub() *Hub {
	h := &Hub{
		clients:   make(map[string]map[Subscriber]struct{}),
		register:  make(chan subscription),
		unreg:     make(chan subscription),
		broadcast: make(chan message),
	}
	go h.run()
	return h
}

func (h *Hub) run() {
	for {
		select {
		case sub := <-h.register:
			if _, ok := h.clients[sub.onboardingID]; !ok {
				h.clients[sub.onboardingID] = make(map[Subscriber]struct{})
			}
			h.clients[sub.onboardingID][sub.client] = struct{}{}
		case sub := <-h.unreg:
			if clients, ok := h.clients[sub.onboardingID]; ok {
				delete(clients, sub.client)
				if len(clients) == 0 {
					delete(h.clients, sub.onboardingID)
				}
			}
		case msg := <-h.broadcast:
			if clients, ok := h.clients[msg.onboardingID]; ok {
				for c := range clients {
					if err := c.Send(msg.payload); err != nil {
						c.Close()
						delete(clients, c)
					}
				}
				if len(clients) == 0 {
					delete(h.clients, msg.onboardingID)
				}
			}
		}
	}
}

// Register adds a client to an onboarding stream.
func (h *Hub) Register(onboardingID string, client Subscriber) {
	h.register <- subscription{onboardingID: onboardingID, client: client}
}

// Unregister removes a client.
func (h *Hub) Unregister(onboardingID string, client Subscriber) {
	h.unreg <- subscription{onboardingID: onboardingID, client: client}
}

// Broadcast sends payload to every subscriber of the onboarding record.
func (h *Hub) Broadcast(onboardingID string, payload []byte) {
	h.broadcast <- message{onboardingID: onboardingID, payload: payload}
}
