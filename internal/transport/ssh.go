package transport

import (
	"context"
	"fmt"
	"io"
	"net"
	"time"

	"golang.org/x/crypto/ssh"
)

// connectTimeout bounds the TCP dial and SSH handshake.
const connectTimeout = 15 * time.Second

// MaxResizeCols and MaxResizeRows define upper bounds for terminal resize
// requests. Values beyond these are clamped by callers.
const (
	MaxResizeCols uint16 = 500
	MaxResizeRows uint16 = 500
)

// Connect dials host:port, authenticates, and starts an interactive shell
// with a PTY. The returned stream delivers nothing until Start is called.
func Connect(ctx context.Context, p Params) (Stream, error) {
	var auth []ssh.AuthMethod
	switch p.AuthMethod {
	case AuthPrivateKey:
		signer, err := ssh.ParsePrivateKey(p.PrivateKey)
		if err != nil {
			return nil, &AuthError{Err: fmt.Errorf("parse private key: %w", err)}
		}
		auth = append(auth, ssh.PublicKeys(signer))
	default:
		auth = append(auth, ssh.Password(p.Password))
	}

	cfg := &ssh.ClientConfig{
		User:            p.Username,
		Auth:            auth,
		HostKeyCallback: ssh.InsecureIgnoreHostKey(),
		Timeout:         connectTimeout,
	}

	port := p.Port
	if port == 0 {
		port = 22
	}
	addr := net.JoinHostPort(p.Host, fmt.Sprintf("%d", port))

	dialer := net.Dialer{Timeout: connectTimeout}
	netConn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, &NetworkError{Err: fmt.Errorf("dial %s: %w", addr, err)}
	}

	sshConn, chans, reqs, err := ssh.NewClientConn(netConn, addr, cfg)
	if err != nil {
		netConn.Close()
		return nil, &AuthError{Err: fmt.Errorf("ssh handshake with %s: %w", addr, err)}
	}
	client := ssh.NewClient(sshConn, chans, reqs)

	stream, err := openShell(client)
	if err != nil {
		client.Close()
		return nil, err
	}
	return stream, nil
}

// openShell requests a PTY-backed shell on the client and wires up pipes.
func openShell(client *ssh.Client) (*sshStream, error) {
	session, err := client.NewSession()
	if err != nil {
		return nil, &ChannelError{Err: fmt.Errorf("create ssh session: %w", err)}
	}

	modes := ssh.TerminalModes{
		ssh.ECHO:          1,
		ssh.TTY_OP_ISPEED: 14400,
		ssh.TTY_OP_OSPEED: 14400,
	}

	if err := session.RequestPty("xterm-256color", 24, 80, modes); err != nil {
		session.Close()
		return nil, &ChannelError{Err: fmt.Errorf("request pty: %w", err)}
	}

	stdin, err := session.StdinPipe()
	if err != nil {
		session.Close()
		return nil, &ChannelError{Err: fmt.Errorf("stdin pipe: %w", err)}
	}
	stdout, err := session.StdoutPipe()
	if err != nil {
		session.Close()
		return nil, &ChannelError{Err: fmt.Errorf("stdout pipe: %w", err)}
	}
	stderr, err := session.StderrPipe()
	if err != nil {
		session.Close()
		return nil, &ChannelError{Err: fmt.Errorf("stderr pipe: %w", err)}
	}

	if err := session.Shell(); err != nil {
		session.Close()
		return nil, &ChannelError{Err: fmt.Errorf("start shell: %w", err)}
	}

	return &sshStream{
		client:  client,
		session: session,
		stdin:   stdin,
		stdout:  stdout,
		stderr:  stderr,
	}, nil
}

// sshStream adapts an SSH session with a PTY to the Stream contract.
type sshStream struct {
	client  *ssh.Client
	session *ssh.Session
	stdin   io.WriteCloser
	stdout  io.Reader
	stderr  io.Reader
}

func (s *sshStream) Start(cb Callbacks) {
	// stderr pump; no close signaling, stdout owns that
	go func() {
		buf := make([]byte, 32*1024)
		for {
			n, err := s.stderr.Read(buf)
			if n > 0 && cb.OnStderr != nil {
				data := make([]byte, n)
				copy(data, buf[:n])
				cb.OnStderr(data)
			}
			if err != nil {
				return
			}
		}
	}()

	go func() {
		buf := make([]byte, 32*1024)
		for {
			n, err := s.stdout.Read(buf)
			if n > 0 && cb.OnData != nil {
				data := make([]byte, n)
				copy(data, buf[:n])
				cb.OnData(data)
			}
			if err != nil {
				if cb.OnClose != nil {
					if err == io.EOF {
						err = nil
					}
					cb.OnClose(err)
				}
				return
			}
		}
	}()
}

func (s *sshStream) Write(p []byte) (int, error) {
	return s.stdin.Write(p)
}

func (s *sshStream) Resize(cols, rows uint16) error {
	return s.session.WindowChange(int(rows), int(cols))
}

func (s *sshStream) Close() error {
	err := s.session.Close()
	if cerr := s.client.Close(); err == nil {
		err = cerr
	}
	return err
}
