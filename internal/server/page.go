package server

// forumPage is the self-contained client served at "/". It speaks the same
// envelope protocol as any other client and keeps no state of its own beyond
// the chosen username.
const forumPage = `<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="UTF-8">
  <meta name="viewport" content="width=device-width, initial-scale=1.0">
  <title>Community Forum</title>
  <style>
    body {
      font-family: Arial, sans-serif;
      max-width: 800px;
      margin: 0 auto;
      padding: 20px;
    }
    #message-container {
      height: 400px;
      overflow-y: auto;
      border: 1px solid #ccc;
      margin-bottom: 20px;
      padding: 10px;
    }
    .message {
      margin-bottom: 10px;
      padding: 8px;
      border-radius: 5px;
      background-color: #f1f1f1;
    }
    .message .author {
      font-weight: bold;
      margin-right: 10px;
    }
    .message .time {
      font-size: 0.8em;
      color: #666;
    }
    .user-form, .message-form {
      margin-bottom: 20px;
    }
    input, button {
      padding: 8px;
      margin-right: 5px;
    }
    #message-input {
      width: 70%;
    }
    #users-list {
      margin-bottom: 20px;
      padding: 10px;
      background-color: #f9f9f9;
      border-radius: 5px;
    }
  </style>
</head>
<body>
  <h1>Simple Community Forum</h1>

  <div id="users-list">
    <h3>Online Users: <span id="user-count">0</span></h3>
    <div id="users"></div>
  </div>

  <div class="user-form" id="username-form">
    <input type="text" id="username-input" placeholder="Enter your username">
    <button id="username-button">Join Forum</button>
  </div>

  <div id="message-container"></div>

  <div class="message-form" id="message-form" style="display: none;">
    <input type="text" id="message-input" placeholder="Type your message">
    <button id="send-button">Send</button>
  </div>

  <script>
    var proto = location.protocol === 'https:' ? 'wss://' : 'ws://';
    var socket = new WebSocket(proto + location.host + '/ws');

    var usernameForm = document.getElementById('username-form');
    var usernameInput = document.getElementById('username-input');
    var usernameButton = document.getElementById('username-button');
    var messageForm = document.getElementById('message-form');
    var messageInput = document.getElementById('message-input');
    var sendButton = document.getElementById('send-button');
    var messageContainer = document.getElementById('message-container');
    var userCount = document.getElementById('user-count');
    var usersElement = document.getElementById('users');

    var username = '';

    function emit(event, payload) {
      socket.send(JSON.stringify({event: event, payload: payload}));
    }

    usernameButton.addEventListener('click', function () {
      username = usernameInput.value.trim();
      if (username) {
        emit('user_join', username);
        usernameForm.style.display = 'none';
        messageForm.style.display = 'block';
        messageInput.focus();
      }
    });

    sendButton.addEventListener('click', sendMessage);
    messageInput.addEventListener('keypress', function (e) {
      if (e.key === 'Enter') sendMessage();
    });

    function sendMessage() {
      var message = messageInput.value.trim();
      if (message && username) {
        emit('chat_message', {
          text: message,
          author: username,
          timestamp: new Date().toISOString()
        });
        messageInput.value = '';
      }
    }

    function displayMessage(message) {
      var messageElement = document.createElement('div');
      messageElement.className = 'message';

      var time = new Date(message.timestamp).toLocaleTimeString();

      var author = document.createElement('span');
      author.className = 'author';
      author.textContent = message.author + ':';
      var content = document.createElement('span');
      content.className = 'content';
      content.textContent = message.text;
      var when = document.createElement('span');
      when.className = 'time';
      when.textContent = ' ' + time;

      messageElement.appendChild(author);
      messageElement.appendChild(content);
      messageElement.appendChild(when);
      messageContainer.appendChild(messageElement);
      messageContainer.scrollTop = messageContainer.scrollHeight;
    }

    function updateUsers(users) {
      userCount.textContent = users.length;
      usersElement.textContent = users.join(', ');
    }

    socket.onmessage = function (raw) {
      var env = JSON.parse(raw.data);
      if (env.event === 'chat_history') {
        messageContainer.innerHTML = '';
        env.payload.forEach(displayMessage);
      } else if (env.event === 'chat_message') {
        displayMessage(env.payload);
      } else if (env.event === 'user_list') {
        updateUsers(env.payload);
      } else if (env.event === 'system_message') {
        var el = document.createElement('div');
        el.className = 'message system';
        var em = document.createElement('em');
        em.textContent = env.payload;
        el.appendChild(em);
        messageContainer.appendChild(el);
        messageContainer.scrollTop = messageContainer.scrollHeight;
      }
    };
  </script>
</body>
</html>
`
