package receipt

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/onsi/gomega/ghttp"

	"github.com/ShelfLife2025/receipt-ai-backend/internal/extraction"
)

// multipartUpload builds a multipart body with one file field
func multipartUpload(field, filename string, data []byte) (*bytes.Buffer, string) {
	var b bytes.Buffer
	writer := multipart.NewWriter(&b)
	part, err := writer.CreateFormFile(field, filename)
	Expect(err).NotTo(HaveOccurred())
	_, err = part.Write(data)
	Expect(err).NotTo(HaveOccurred())
	Expect(writer.Close()).To(Succeed())
	return &b, writer.FormDataContentType()
}

var _ = Describe("Server", func() {
	var (
		detector    *mockDetector
		extractor   *mockExtractor
		server      *Server
		ghttpServer *ghttp.Server
	)

	BeforeEach(func() {
		detector = newMockDetector()
		extractor = newMockExtractor()
		service := NewService(detector, extractor)
		server = NewServerWithMux(service, 0, http.NewServeMux())

		ghttpServer = ghttp.NewServer()
		ghttpServer.AppendHandlers(server.ServeHTTP, server.ServeHTTP, server.ServeHTTP)
	})

	AfterEach(func() {
		ghttpServer.Close()
	})

	Describe("handleHealth", func() {
		for _, route := range []string{"/health", "/"} {
			route := route

			When("requesting "+route, func() {
				It("should return status OK", func() {
					resp, err := http.Get(ghttpServer.URL() + route)
					Expect(err).NotTo(HaveOccurred())
					Expect(resp.StatusCode).To(Equal(http.StatusOK))
					resp.Body.Close()
				})

				It("should report ok status", func() {
					resp, err := http.Get(ghttpServer.URL() + route)
					Expect(err).NotTo(HaveOccurred())
					defer resp.Body.Close()
					var body map[string]string
					Expect(json.NewDecoder(resp.Body).Decode(&body)).To(Succeed())
					Expect(body).To(HaveKeyWithValue("status", "ok"))
				})
			})
		}
	})

	Describe("handleScan", func() {
		postScan := func(route, field string, data []byte) *http.Response {
			body, contentType := multipartUpload(field, "receipt.jpg", data)
			resp, err := http.Post(ghttpServer.URL()+route, contentType, body)
			Expect(err).NotTo(HaveOccurred())
			return resp
		}

		When("upload succeeds", func() {
			It("should return status OK", func() {
				resp := postScan("/scan", "image", []byte("fake image data"))
				Expect(resp.StatusCode).To(Equal(http.StatusOK))
				resp.Body.Close()
			})

			It("should return the parsed items as a JSON array", func() {
				resp := postScan("/scan", "image", []byte("fake image data"))
				defer resp.Body.Close()
				var items []extraction.Item
				Expect(json.NewDecoder(resp.Body).Decode(&items)).To(Succeed())
				Expect(items).To(Equal([]extraction.Item{
					{Name: "Milk", Quantity: 2, Category: "Food"},
					{Name: "Paper Towels", Quantity: 1, Category: "Household"},
				}))
			})

			It("should set Content-Type to application/json", func() {
				resp := postScan("/scan", "image", []byte("fake image data"))
				defer resp.Body.Close()
				Expect(resp.Header.Get("Content-Type")).To(Equal("application/json"))
			})

			It("should forward the uploaded bytes unmodified to the OCR stage", func() {
				data := []byte{0xff, 0xd8, 0x00, 0x01, 0x02}
				resp := postScan("/scan", "image", data)
				resp.Body.Close()
				Expect(detector.receivedImage).To(Equal(data))
			})
		})

		When("the upload uses the file field", func() {
			It("should return status OK", func() {
				resp := postScan("/scan", "file", []byte("fake image data"))
				Expect(resp.StatusCode).To(Equal(http.StatusOK))
				resp.Body.Close()
			})
		})

		When("both fields are present", func() {
			It("should use the image field", func() {
				var b bytes.Buffer
				writer := multipart.NewWriter(&b)
				imagePart, _ := writer.CreateFormFile("image", "a.jpg")
				imagePart.Write([]byte("image field bytes"))
				filePart, _ := writer.CreateFormFile("file", "b.jpg")
				filePart.Write([]byte("file field bytes"))
				writer.Close()

				resp, err := http.Post(ghttpServer.URL()+"/scan", writer.FormDataContentType(), &b)
				Expect(err).NotTo(HaveOccurred())
				resp.Body.Close()

				Expect(detector.receivedImage).To(Equal([]byte("image field bytes")))
			})
		})

		When("the three scan routes receive identical input", func() {
			It("should produce identical output", func() {
				var bodies []string
				for _, route := range []string{"/scan", "/api/scan", "/parse"} {
					resp := postScan(route, "image", []byte("fake image data"))
					Expect(resp.StatusCode).To(Equal(http.StatusOK))
					body, err := io.ReadAll(resp.Body)
					Expect(err).NotTo(HaveOccurred())
					resp.Body.Close()
					bodies = append(bodies, string(body))
				}
				Expect(bodies[1]).To(Equal(bodies[0]))
				Expect(bodies[2]).To(Equal(bodies[0]))
			})
		})

		When("no file is provided", func() {
			It("should return status Bad Request", func() {
				var b bytes.Buffer
				writer := multipart.NewWriter(&b)
				writer.WriteField("note", "no file here")
				writer.Close()

				resp, err := http.Post(ghttpServer.URL()+"/scan", writer.FormDataContentType(), &b)
				Expect(err).NotTo(HaveOccurred())
				Expect(resp.StatusCode).To(Equal(http.StatusBadRequest))
				resp.Body.Close()
			})

			It("should not call the OCR stage", func() {
				var b bytes.Buffer
				writer := multipart.NewWriter(&b)
				writer.WriteField("note", "no file here")
				writer.Close()

				resp, err := http.Post(ghttpServer.URL()+"/scan", writer.FormDataContentType(), &b)
				Expect(err).NotTo(HaveOccurred())
				resp.Body.Close()
				Expect(detector.calls).To(BeZero())
			})
		})

		When("the uploaded file is empty", func() {
			It("should return status Bad Request", func() {
				resp := postScan("/scan", "image", []byte{})
				Expect(resp.StatusCode).To(Equal(http.StatusBadRequest))
				resp.Body.Close()
			})

			It("should not call the OCR stage", func() {
				resp := postScan("/scan", "image", []byte{})
				resp.Body.Close()
				Expect(detector.calls).To(BeZero())
			})

			It("should return an error message", func() {
				resp := postScan("/scan", "file", []byte{})
				defer resp.Body.Close()
				var body map[string]string
				Expect(json.NewDecoder(resp.Body).Decode(&body)).To(Succeed())
				Expect(body["error"]).To(ContainSubstring("empty"))
			})
		})

		When("extraction finds no items", func() {
			BeforeEach(func() {
				extractor.extractErr = extraction.ErrNoItems
			})

			It("should return status No Content", func() {
				resp := postScan("/scan", "image", []byte("fake image data"))
				Expect(resp.StatusCode).To(Equal(http.StatusNoContent))
				resp.Body.Close()
			})
		})

		When("the model returns unparseable content", func() {
			BeforeEach(func() {
				extractor.extractErr = &extraction.FormatError{Detail: "no JSON array found in response"}
			})

			It("should return status Bad Gateway", func() {
				resp := postScan("/scan", "image", []byte("fake image data"))
				Expect(resp.StatusCode).To(Equal(http.StatusBadGateway))
				resp.Body.Close()
			})
		})

		When("an item fails schema validation", func() {
			BeforeEach(func() {
				extractor.extractErr = &extraction.ValidationError{Detail: `item 0: category must be "Food" or "Household", got "Produce"`}
			})

			It("should return status Unprocessable Entity", func() {
				resp := postScan("/scan", "image", []byte("fake image data"))
				Expect(resp.StatusCode).To(Equal(http.StatusUnprocessableEntity))
				resp.Body.Close()
			})

			It("should include the validation detail", func() {
				resp := postScan("/scan", "image", []byte("fake image data"))
				defer resp.Body.Close()
				var body map[string]string
				Expect(json.NewDecoder(resp.Body).Decode(&body)).To(Succeed())
				Expect(body["error"]).To(ContainSubstring("Produce"))
			})
		})

		When("a request completes", func() {
			var buf bytes.Buffer
			var prevLogger *slog.Logger

			BeforeEach(func() {
				buf.Reset()
				prevLogger = slog.Default()
				slog.SetDefault(slog.New(slog.NewTextHandler(&buf, nil)))
			})

			AfterEach(func() {
				slog.SetDefault(prevLogger)
			})

			It("should log the method, path and resolved status", func() {
				resp := postScan("/scan", "image", []byte("fake image data"))
				resp.Body.Close()

				Expect(buf.String()).To(ContainSubstring("method=POST"))
				Expect(buf.String()).To(ContainSubstring("path=/scan"))
				Expect(buf.String()).To(ContainSubstring("status=200"))
				Expect(buf.String()).To(ContainSubstring("request_id="))
			})

			It("should log the status the handler actually wrote", func() {
				extractor.extractErr = extraction.ErrNoItems
				resp := postScan("/scan", "image", []byte("fake image data"))
				resp.Body.Close()

				Expect(buf.String()).To(ContainSubstring("status=204"))
			})
		})

		When("the OCR service fails", func() {
			BeforeEach(func() {
				detector.detectErr = errors.New("vision unavailable")
			})

			It("should return status Internal Server Error", func() {
				resp := postScan("/scan", "image", []byte("fake image data"))
				Expect(resp.StatusCode).To(Equal(http.StatusInternalServerError))
				resp.Body.Close()
			})

			It("should return a generic error message", func() {
				resp := postScan("/scan", "image", []byte("fake image data"))
				defer resp.Body.Close()
				var body map[string]string
				Expect(json.NewDecoder(resp.Body).Decode(&body)).To(Succeed())
				Expect(body["error"]).To(Equal("Internal server error"))
				Expect(body["error"]).NotTo(ContainSubstring("vision"))
			})
		})
	})

	Describe("CORS", func() {
		It("should answer preflight OPTIONS requests", func() {
			req, err := http.NewRequest(http.MethodOptions, ghttpServer.URL()+"/scan", nil)
			Expect(err).NotTo(HaveOccurred())
			resp, err := http.DefaultClient.Do(req)
			Expect(err).NotTo(HaveOccurred())
			defer resp.Body.Close()

			Expect(resp.StatusCode).To(Equal(http.StatusNoContent))
			Expect(resp.Header.Get("Access-Control-Allow-Origin")).To(Equal("*"))
			Expect(resp.Header.Get("Access-Control-Allow-Methods")).To(ContainSubstring("POST"))
		})

		It("should set CORS headers on regular responses", func() {
			resp, err := http.Get(ghttpServer.URL() + "/health")
			Expect(err).NotTo(HaveOccurred())
			defer resp.Body.Close()

			Expect(resp.Header.Get("Access-Control-Allow-Origin")).To(Equal("*"))
		})
	})
})
