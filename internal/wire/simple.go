package wire

import "io"

// pingReqBytes, pingRespBytes, and disconnectBytes are the fixed 2-byte
// encodings of PINGREQ, PINGRESP, and DISCONNECT, per spec.md section 4.1.
var (
	pingReqBytes    = [2]byte{TypePingReq << 4, 0x00}
	pingRespBytes   = [2]byte{TypePingResp << 4, 0x00}
	disconnectBytes = [2]byte{TypeDisconnect << 4, 0x00}
)

// WritePingReq writes the 2-byte PINGREQ packet to w.
func WritePingReq(w io.Writer) (int64, error) {
	n, err := w.Write(pingReqBytes[:])
	return int64(n), err
}

// WritePingResp writes the 2-byte PINGRESP packet to w.
func WritePingResp(w io.Writer) (int64, error) {
	n, err := w.Write(pingRespBytes[:])
	return int64(n), err
}

// WriteDisconnect writes the 2-byte DISCONNECT packet to w.
func WriteDisconnect(w io.Writer) (int64, error) {
	n, err := w.Write(disconnectBytes[:])
	return int64(n), err
}
