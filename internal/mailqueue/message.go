package mailqueue

import "encoding/json"

// Message is one email-send job. Delivery and retry are the worker's
// responsibility; producers only enqueue.
type Message struct {
	ID        string            `json:"id"`
	Subject   string            `json:"subject"`
	To        string            `json:"to"`
	Template  string            `json:"template"`
	Variables map[string]string `json:"variables"`
}

func (m Message) streamValues() (map[string]any, error) {
	variables, err := json.Marshal(m.Variables)
	if err != nil {
		return nil, err
	}
	return map[string]any{
		"id":        m.ID,
		"subject":   m.Subject,
		"to":        m.To,
		"template":  m.Template,
		"variables": string(variables),
	}, nil
}

func messageFromValues(values map[string]any) (Message, error) {
	msg := Message{
		ID:       stringValue(values, "id"),
		Subject:  stringValue(values, "subject"),
		To:       stringValue(values, "to"),
		Template: stringValue(values, "template"),
	}

	if raw := stringValue(values, "variables"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &msg.Variables); err != nil {
			return Message{}, err
		}
	}
	return msg, nil
}

func stringValue(values map[string]any, key string) string {
	if v, ok := values[key].(string); ok {
		return v
	}
	return ""
}
