package main

import (
	"crypto/rsa"
	"crypto/sha256"
	"crypto/x509"
	"encoding/hex"
	"encoding/pem"
	"flag"
	"fmt"
	"log"
	"math/big"
	"os"
)

// Converts PEM certificate bundles into the audit input format:
// id,fingerprint,modulus with the modulus in decimal and the
// fingerprint being the SHA-256 of the DER certificate.
func main() {
	log.SetOutput(os.Stderr)
	flag.Parse()
	if len(flag.Args()) == 0 {
		log.Fatal("No files specified")
	}

	ch := make(chan []byte)
	done := make(chan struct{})

	go printModuli(ch, done)
	for _, filename := range flag.Args() {
		log.Print("Loading certificates from ", filename)
		readPem(filename, ch)
	}
	close(ch)
	<-done
}

func readPem(filename string, ch chan<- []byte) {
	data, err := os.ReadFile(filename)
	if err != nil {
		log.Fatal(err)
	}

	for len(data) > 0 {
		var block *pem.Block
		block, data = pem.Decode(data)
		if block == nil {
			break
		}
		if block.Type != "CERTIFICATE" || len(block.Headers) != 0 {
			continue
		}

		ch <- block.Bytes
	}
}

func printModuli(ch <-chan []byte, done chan<- struct{}) {
	smallest := big.NewInt(65537)
	var id int
	for der := range ch {
		cert, err := x509.ParseCertificate(der)
		if err != nil {
			log.Printf("Skipping unparseable certificate: %v", err)
			continue
		}
		pk, ok := cert.PublicKey.(*rsa.PublicKey)
		if !ok {
			log.Print("Skipping non-RSA certificate")
			continue
		}
		if pk.N.Cmp(smallest) < 1 {
			log.Print("Skipping small/negative modulus")
			continue
		}
		sum := sha256.Sum256(cert.Raw)
		fmt.Printf("%d,%s,%s\n", id, hex.EncodeToString(sum[:]), pk.N.String())
		id++
	}
	close(done)
}
