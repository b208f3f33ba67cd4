package kafka

import (
	"reflect"
	"testing"

	"github.com/segmentio/kafka-go"
)

func TestNewWriter(t *testing.T) {
	w := NewWriter([]string{"b1:9092", "b2:9092"}, "loan-order-events")
	defer w.Close()

	if w.Topic != "loan-order-events" {
		t.Fatalf("Topic = %q", w.Topic)
	}
	if _, ok := w.Balancer.(*kafka.Hash); !ok {
		t.Fatalf("Balancer = %T, want *kafka.Hash", w.Balancer)
	}
	if w.Addr.String() != "b1:9092,b2:9092" {
		t.Fatalf("Addr = %q", w.Addr.String())
	}
}

func TestParseBrokers(t *testing.T) {
	got := ParseBrokers(" a:1, ,b:2,")
	if want := []string{"a:1", "b:2"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("ParseBrokers = %v, want %v", got, want)
	}
	if ParseBrokers("") != nil {
		t.Fatal("empty input must yield nil")
	}
}
