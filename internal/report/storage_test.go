package report

import (
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("LocalStorage", func() {
	var (
		tmpDir  string
		storage Storage
	)

	BeforeEach(func() {
		tmpDir = GinkgoT().TempDir()
		var err error
		storage, err = NewLocalStorage(tmpDir)
		Expect(err).NotTo(HaveOccurred())
	})

	Describe("Save", func() {
		var (
			name      string
			data      []byte
			savedName string
			err       error
		)

		BeforeEach(func() {
			name = "run-1_amounts.txt"
			data = []byte("1234,56\n789,00\n")
		})

		JustBeforeEach(func() {
			savedName, err = storage.Save(name, data)
		})

		When("saving succeeds", func() {
			It("should not return an error", func() {
				Expect(err).NotTo(HaveOccurred())
			})

			It("should return the artifact name", func() {
				Expect(savedName).To(Equal(name))
			})

			It("should write the artifact to disk", func() {
				written, readErr := os.ReadFile(filepath.Join(tmpDir, name))
				Expect(readErr).NotTo(HaveOccurred())
				Expect(string(written)).To(Equal("1234,56\n789,00\n"))
			})
		})

		When("the name tries to escape the output directory", func() {
			BeforeEach(func() {
				name = filepath.Join("..", "amounts.txt")
			})

			It("returns the error", func() {
				Expect(err).To(HaveOccurred())
				Expect(err.Error()).To(ContainSubstring("invalid artifact name"))
			})
		})

		When("the name is empty", func() {
			BeforeEach(func() {
				name = ""
			})

			It("returns the error", func() {
				Expect(err).To(HaveOccurred())
			})
		})
	})

	Describe("Delete", func() {
		var (
			name string
			err  error
		)

		JustBeforeEach(func() {
			err = storage.Delete(name)
		})

		When("the artifact exists", func() {
			BeforeEach(func() {
				name = "run-1_histogram.png"
				_, saveErr := storage.Save(name, []byte("png bytes"))
				Expect(saveErr).NotTo(HaveOccurred())
			})

			It("should not return an error", func() {
				Expect(err).NotTo(HaveOccurred())
			})

			It("should remove the artifact from disk", func() {
				Expect(filepath.Join(tmpDir, name)).NotTo(BeAnExistingFile())
			})
		})

		When("the artifact does not exist", func() {
			BeforeEach(func() {
				name = "nonexistent.txt"
			})

			It("returns the error", func() {
				Expect(err).To(HaveOccurred())
				Expect(err.Error()).To(ContainSubstring("deleting artifact"))
			})
		})
	})

	Describe("NewLocalStorage", func() {
		var (
			outputPath string
			err        error
		)

		JustBeforeEach(func() {
			storage, err = NewLocalStorage(outputPath)
		})

		When("the directory does not exist", func() {
			BeforeEach(func() {
				outputPath = filepath.Join(GinkgoT().TempDir(), "out")
			})

			It("should not return an error", func() {
				Expect(err).NotTo(HaveOccurred())
			})

			It("should create the directory", func() {
				Expect(outputPath).To(BeADirectory())
			})

			It("should allow saving artifacts", func() {
				_, saveErr := storage.Save("run-1_amounts.txt", []byte("data"))
				Expect(saveErr).NotTo(HaveOccurred())
			})
		})

		When("the directory already exists", func() {
			BeforeEach(func() {
				outputPath = GinkgoT().TempDir()
			})

			It("should not return an error", func() {
				Expect(err).NotTo(HaveOccurred())
			})

			It("should allow saving artifacts", func() {
				_, saveErr := storage.Save("run-1_amounts.txt", []byte("data"))
				Expect(saveErr).NotTo(HaveOccurred())
			})
		})
	})
})
