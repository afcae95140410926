package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	"invest_platform/internal/service"
	"invest_platform/internal/ws"

	"github.com/gorilla/websocket"
	"github.com/joho/godotenv"
)

// Connects to a running server as userID, submits a manual deposit and prints
// the status events that come back over the socket.
func main() {
	_ = godotenv.Load()

	userID := flag.Int64("user", 1, "existing user id")
	amount := flag.String("amount", "500", "deposit amount")
	flag.Parse()

	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		log.Fatal("JWT_SECRET not set")
	}
	port := os.Getenv("APP_PORT")
	if port == "" {
		port = "8080"
	}
	service.SetJWTSecret(jwtSecret)

	token, err := service.GenerateJWT(*userID, false, time.Hour)
	if err != nil {
		log.Fatalf("gen token: %v", err)
	}

	// use 127.0.0.1 to prefer IPv4 (avoid resolving to [::1])
	base := "127.0.0.1:" + port
	conn, _, err := websocket.DefaultDialer.Dial(fmt.Sprintf("ws://%s/ws?token=%s", base, token), nil)
	if err != nil {
		log.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	readOne := func() (*ws.Envelope, bool) {
		conn.SetReadDeadline(time.Now().Add(3 * time.Second))
		_, msg, err := conn.ReadMessage()
		if err != nil {
			log.Printf("read error: %v", err)
			return nil, false
		}
		var env ws.Envelope
		if err := json.Unmarshal(msg, &env); err != nil {
			log.Printf("bad frame: %s", msg)
			return nil, false
		}
		log.Printf("got %s: %s", env.Type, string(env.Data))
		return &env, true
	}

	if env, ok := readOne(); !ok || env.Type != ws.MsgReady {
		log.Fatal("no ready message")
	}

	body, _ := json.Marshal(map[string]string{
		"amount":          *amount,
		"transaction_ref": fmt.Sprintf("SMOKE-%d", time.Now().UnixNano()),
		"payment_method":  "bkash",
		"sender_info":     "01700000000",
	})
	req, _ := http.NewRequest(http.MethodPost, "http://"+base+"/api/v1/deposits/manual", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)
	res, err := http.DefaultClient.Do(req)
	if err != nil {
		log.Fatalf("submit deposit: %v", err)
	}
	res.Body.Close()
	log.Printf("deposit submitted: %s", res.Status)

	for {
		env, ok := readOne()
		if !ok {
			break
		}
		if env.Type == ws.MsgRecordStatus {
			break
		}
	}

	log.Println("smoke test finished")
}
