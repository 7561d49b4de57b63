// Command scan-replay reads a recorded pcap capture of UDP scan or point
// cloud packets and replays them through the estimator, for offline testing
// without a live sensor (spec.md §4.6 of the expanded design). It is a test
// harness, not a core component: the wire format is inferred as JSON for
// this harness rather than a specific production codec.
package main

import (
	"encoding/json"
	"flag"
	"log"
	"os"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcapgo"

	"github.com/banshee-data/reflector-slam/internal/bootstrap"
	"github.com/banshee-data/reflector-slam/internal/config"
	"github.com/banshee-data/reflector-slam/internal/slam"
)

func main() {
	capturePath := flag.String("pcap", "", "path to a recorded pcap capture of scan/cloud UDP packets")
	mapPath := flag.String("map", "", "prior map file to load before replay")
	udpPort := flag.Int("port", 0, "only replay packets destined for this UDP port (0 = all)")
	flag.Parse()

	if *capturePath == "" {
		log.Fatalf("scan-replay: -pcap is required")
	}

	cfg := config.MustLoadDefaultConfig()
	prior, err := slam.LoadPriorMap(*mapPath)
	if err != nil {
		log.Fatalf("scan-replay: loading prior map: %v", err)
	}

	estimator := slam.NewEstimator(bootstrap.StartPose(cfg), prior, bootstrap.EstimatorConfig(cfg), nil)

	file, err := os.Open(*capturePath)
	if err != nil {
		log.Fatalf("scan-replay: opening capture: %v", err)
	}
	defer file.Close()

	reader, err := pcapgo.NewReader(file)
	if err != nil {
		log.Fatalf("scan-replay: reading pcap header: %v", err)
	}

	source := gopacket.NewPacketSource(reader, reader.LinkType())
	count := 0
	for packet := range source.Packets() {
		udpLayer := packet.Layer(layers.LayerTypeUDP)
		if udpLayer == nil {
			continue
		}
		udp, ok := udpLayer.(*layers.UDP)
		if !ok {
			continue
		}
		if *udpPort != 0 && int(udp.DstPort) != *udpPort {
			continue
		}

		if err := replayPayload(estimator, udp.Payload); err != nil {
			log.Printf("scan-replay: skipping packet: %v", err)
			continue
		}
		count++
	}

	log.Printf("scan-replay: replayed %d packets", count)
}

// replayPayload decodes one UDP payload as either a LaserScan or a
// PointCloud (distinguished by a "kind" envelope field) and feeds it to the
// estimator through its ordinary input contracts.
func replayPayload(estimator *slam.Estimator, payload []byte) error {
	var envelope struct {
		Kind string `json:"kind"`
	}
	if err := json.Unmarshal(payload, &envelope); err != nil {
		return err
	}

	switch envelope.Kind {
	case "scan":
		var scan slam.LaserScan
		if err := json.Unmarshal(payload, &scan); err != nil {
			return err
		}
		return estimator.AddScan(scan)
	case "cloud":
		var cloud slam.PointCloud
		if err := json.Unmarshal(payload, &cloud); err != nil {
			return err
		}
		return estimator.AddCloud(cloud)
	default:
		return nil
	}
}
