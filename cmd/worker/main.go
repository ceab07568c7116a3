package main

import (
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"google.golang.org/grpc"

	"github.com/ALSM-PhD/Segframe/pkg/config"
	"github.com/ALSM-PhD/Segframe/pkg/executor"
	"github.com/ALSM-PhD/Segframe/pkg/wire"
	"github.com/ALSM-PhD/Segframe/pkg/worker"
)

func main() {
	cfg := config.Load()
	log.SetFlags(log.Ltime | log.Lmicroseconds)
	log.Printf("⚡ Worker %s starting: slot=%d device=%d", cfg.WorkerID, cfg.WorkerSlot, cfg.WorkerDevice)

	if cfg.WorkerSocket == "" {
		log.Fatalf("❌ WORKER_SOCKET not set; this binary is spawned by the engine's pool")
	}

	// Executors are passed as typed values; the task request picks one by
	// its registered name.
	w, err := worker.New(cfg,
		executor.NewSimulated(5),
		executor.Identity(),
	)
	if err != nil {
		log.Fatalf("❌ Failed to create worker: %v", err)
	}

	grpcServer := grpc.NewServer(grpc.ForceServerCodec(wire.Codec{}))
	w.RegisterGRPC(grpcServer)

	lis, err := net.Listen("unix", cfg.WorkerSocket)
	if err != nil {
		log.Fatalf("❌ Failed to listen on %s: %v", cfg.WorkerSocket, err)
	}

	if cfg.MetricsPort > 0 {
		go func() {
			mux := http.NewServeMux()
			w.RegisterMetricsHTTP(mux)
			addr := fmt.Sprintf(":%d", cfg.MetricsPort)
			log.Printf("📊 Metrics endpoint on %s/metrics", addr)
			if err := http.ListenAndServe(addr, mux); err != nil {
				log.Fatalf("❌ Metrics server failed: %v", err)
			}
		}()
	}

	go func() {
		log.Printf("🚀 Serving tasks on %s", cfg.WorkerSocket)
		if err := grpcServer.Serve(lis); err != nil {
			log.Fatalf("❌ gRPC server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("🛑 Shutting down worker...")
	grpcServer.GracefulStop()
	log.Println("✅ Worker stopped")
}
