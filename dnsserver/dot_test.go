package dnsserver

import (
	"context"
	"encoding/binary"
	"io"
	"net"
	"testing"

	"github.com/miekg/dns"
	"github.com/stretchr/testify/assert"

	"github.com/Acktarius/hnsgo/hlog"
)

func TestDoTServeConnRoundTrip(t *testing.T) {
	client, server := net.Pipe()
	defer client.Close()

	s := &DoTServer{resolver: &fakeResolver{wire: sampleResponse(t)}, log: hlog.Discard}
	done := make(chan struct{})
	go func() {
		s.serveConn(context.Background(), server)
		close(done)
	}()

	q := sampleQuery(t)
	var lenBuf [2]byte
	binary.BigEndian.PutUint16(lenBuf[:], uint16(len(q)))
	_, err := client.Write(lenBuf[:])
	assert.NoError(t, err)
	_, err = client.Write(q)
	assert.NoError(t, err)

	var respLenBuf [2]byte
	_, err = io.ReadFull(client, respLenBuf[:])
	assert.NoError(t, err)
	respLen := binary.BigEndian.Uint16(respLenBuf[:])
	respBytes := make([]byte, respLen)
	_, err = io.ReadFull(client, respBytes)
	assert.NoError(t, err)

	m := new(dns.Msg)
	assert.NoError(t, m.Unpack(respBytes))
	assert.Equal(t, dns.RcodeSuccess, m.Rcode)

	client.Close()
	<-done
}
