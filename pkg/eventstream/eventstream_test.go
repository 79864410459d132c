package eventstream_test

import (
	"context"
	"testing"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/pixelheap/imagedex/pkg/eventstream"
	"github.com/pixelheap/imagedex/pkg/eventstream/nop"
)

func TestEventstream(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Eventstream Suite")
}

var _ = Describe("NewEvent", func() {
	It("fills in identity and timing fields", func() {
		before := time.Now().UTC()
		event := eventstream.NewEvent(
			eventstream.EventTypeImageIndexed,
			"img-1",
			"https://example.com/a.jpg",
			"http://localhost:9000/bucket/image_img-1.jpg",
		)

		Expect(event.SchemaVersion).To(Equal(eventstream.SchemaVersionV1))
		Expect(event.EventType).To(Equal(eventstream.EventTypeImageIndexed))
		Expect(event.EventID).NotTo(BeEmpty())
		Expect(event.ImageID).To(Equal("img-1"))
		Expect(event.EmittedAt).To(BeTemporally(">=", before))
	})

	It("gives every event a distinct id", func() {
		a := eventstream.NewEvent(eventstream.EventTypeImageDeleted, "x", "", "")
		b := eventstream.NewEvent(eventstream.EventTypeImageDeleted, "x", "", "")
		Expect(a.EventID).NotTo(Equal(b.EventID))
	})
})

var _ = Describe("nop Publisher", func() {
	It("accepts and discards events", func() {
		p := nop.NewPublisher()
		defer p.Close()

		event := eventstream.NewEvent(eventstream.EventTypeImageIndexed, "img", "", "")
		Expect(p.Publish(context.Background(), event)).To(Succeed())
	})
})
