package gateway

import (
	"net/url"
)

// クエリパラメータ名。
const (
	paramAPIKey    = "api_key"
	paramNodeID    = "node_id"
	paramSrcAddr   = "src_addr"
	paramSrcPort   = "src_port"
	paramDstAddr   = "dst_addr"
	paramDstPort   = "dst_port"
	paramStartTime = "start_time"
	paramEndTime   = "end_time"
)

// pcapRequest は GET /data.pcap のリクエスト。
type pcapRequest struct {
	SrcAddr   string
	SrcPort   string
	DstAddr   string
	DstPort   string
	StartTime string
	EndTime   string
	APIKey    string
	NodeID    string
}

// bindPcapRequest はクエリからpcapRequestを組み立て、不足しているパラメータ名を宣言順で返す。
// 値が空でもキーが存在すれば指定されたものとみなす。
func bindPcapRequest(q url.Values) (pcapRequest, []string) {
	var req pcapRequest
	fields := []struct {
		name string
		dst  *string
	}{
		{paramSrcAddr, &req.SrcAddr},
		{paramSrcPort, &req.SrcPort},
		{paramDstAddr, &req.DstAddr},
		{paramDstPort, &req.DstPort},
		{paramStartTime, &req.StartTime},
		{paramEndTime, &req.EndTime},
		{paramAPIKey, &req.APIKey},
		{paramNodeID, &req.NodeID},
	}

	var missing []string
	for _, f := range fields {
		if !q.Has(f.name) {
			missing = append(missing, f.name)
			continue
		}
		*f.dst = q.Get(f.name)
	}
	return req, missing
}

// upstreamParams はキャプチャノードに転送するパラメータを返す。
// node_idはゲートウェイ内でのみ使用するため転送しない。
func (r pcapRequest) upstreamParams() url.Values {
	return url.Values{
		paramSrcAddr:   {r.SrcAddr},
		paramSrcPort:   {r.SrcPort},
		paramDstAddr:   {r.DstAddr},
		paramDstPort:   {r.DstPort},
		paramStartTime: {r.StartTime},
		paramEndTime:   {r.EndTime},
		paramAPIKey:    {r.APIKey},
	}
}

// pingRequest は GET /nodes/:node_id/ping のリクエスト。
type pingRequest struct {
	NodeID string
}
